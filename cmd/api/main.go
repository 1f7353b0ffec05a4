package main

import (
	"context"
	"os"

	"github.com/mirea/edupulse/internal/pkg/logger"
	"github.com/mirea/edupulse/internal/server"
)

// @title EduPulse API
// @version 1.0
// @description Analytics backend for the MIREA student performance dashboard

// @contact.name EduPulse Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
