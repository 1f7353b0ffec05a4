package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/mirea/edupulse/internal/app/auth"
	appControllers "github.com/mirea/edupulse/internal/app/controllers"
	appMigrations "github.com/mirea/edupulse/internal/app/migrations"
	appRepos "github.com/mirea/edupulse/internal/app/repositories"
	"github.com/mirea/edupulse/internal/app/repositories/memory"
	appRoutes "github.com/mirea/edupulse/internal/app/routes"
	appServices "github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/config"
	"github.com/mirea/edupulse/internal/db"
	appMiddleware "github.com/mirea/edupulse/internal/middleware"
	pkgAuth "github.com/mirea/edupulse/internal/pkg/auth"
	"github.com/mirea/edupulse/internal/pkg/logger"
	"github.com/mirea/edupulse/internal/pkg/studenthash"
	"github.com/mirea/edupulse/internal/seed"
)

// Version is reported by the health endpoint; overridden at build time.
var Version = "dev"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Stores             appServices.Stores
	AuthzService       *appAuth.AuthorizationService
	JWTService         *pkgAuth.JWTService
	AuthService        *appServices.AuthService
	StatsService       appServices.StatsService
	StudentService     appServices.StudentService
	AchievementService appServices.AchievementService
	CatalogService     appServices.CatalogService
	LogService         appServices.LogService
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Controllers        appRoutes.Controllers
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// CONFIG_PATH overrides the default configs/config.yaml.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Version: Version,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Str("driver", cfg.Database.Driver).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// It returns nil for the memory driver.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using the in-memory store; data is lost on restart")
		return nil, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if !cfg.Database.AutoMigrate {
		return database, nil
	}

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component(lgr, "migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildStores selects the PostgreSQL repositories or a fresh in-memory store.
func BuildStores(database *db.PostgresDB) appServices.Stores {
	if database == nil {
		m := memory.New()
		return appServices.Stores{
			Students:     m,
			Groups:       m,
			Courses:      m,
			Grades:       m,
			Attendance:   m,
			Achievements: m,
			Users:        m,
			Logs:         m,
		}
	}

	repos := appRepos.NewRepositories(database.Pool)
	return appServices.Stores{
		Students:     repos.StudentRepository,
		Groups:       repos.GroupRepository,
		Courses:      repos.CourseRepository,
		Grades:       repos.GradeRepository,
		Attendance:   repos.AttendanceRepository,
		Achievements: repos.AchievementRepository,
		Users:        repos.UserRepository,
		Logs:         repos.LogRepository,
	}
}

// AnalyticsOptions maps the analytics config section.
func AnalyticsOptions(cfg *config.Config) appServices.AnalyticsOptions {
	a := cfg.Analytics
	return appServices.AnalyticsOptions{
		AttendanceWindowDays: a.AttendanceWindowDays,
		DashboardWindowDays:  a.DashboardWindowDays,
		KnownDepartments:     a.KnownDepartments,
		LeaderboardLimit:     a.LeaderboardLimit,
		LeaderboardMaxLimit:  a.LeaderboardMaxLimit,
		LeaderboardMinGrades: a.LeaderboardMinGrades,
	}
}

// SeedData writes the default admin and optional demo data.
func SeedData(ctx context.Context, cfg *config.Config, stores appServices.Stores, lgr zerolog.Logger) {
	if !cfg.Seed.Enabled {
		return
	}
	opts := seed.Options{
		AdminEmail:       cfg.Seed.AdminEmail,
		AdminPassword:    cfg.Seed.AdminPassword,
		DemoData:         cfg.Seed.DemoData,
		KnownDepartments: cfg.Analytics.KnownDepartments,
		Passwords:        pkgAuth.NewPasswordHasher(cfg.JWT.BcryptCost),
	}
	if err := seed.CreateDefaultData(ctx, stores, opts, logger.Component(lgr, "seed")); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// BuildDependencies initializes services, middleware and controllers over the given stores.
// pinger backs the health check and may be nil.
func BuildDependencies(cfg *config.Config, stores appServices.Stores, pinger appControllers.Pinger, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Stores: stores, Logger: lgr}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: config.Duration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(stores.Courses, stores.Students)
	hasher := studenthash.New(cfg.StudentHashSecret())
	opts := AnalyticsOptions(cfg)

	passwords := pkgAuth.NewPasswordHasher(cfg.JWT.BcryptCost)
	deps.AuthService = appServices.NewAuthService(stores, deps.JWTService, passwords, logger.Component(lgr, "auth"))
	deps.StatsService = appServices.NewStatsService(stores, deps.AuthzService, hasher, opts, logger.Component(lgr, "stats"))
	deps.StudentService = appServices.NewStudentService(stores, deps.AuthzService, hasher, opts, logger.Component(lgr, "students"))
	deps.AchievementService = appServices.NewAchievementService(stores, deps.AuthzService, opts, logger.Component(lgr, "achievements"))
	deps.CatalogService = appServices.NewCatalogService(stores, deps.AuthzService)
	deps.LogService = appServices.NewLogService(stores.Logs)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		Students:    appControllers.NewStudentController(deps.StudentService, deps.StatsService, lgr),
		Stats:       appControllers.NewStatsController(deps.StatsService, lgr),
		Achievement: appControllers.NewAchievementController(deps.AchievementService, lgr),
		Catalog:     appControllers.NewCatalogController(deps.CatalogService),
		Logs:        appControllers.NewLogController(deps.LogService),
		Health:      appControllers.NewHealthController(pinger, Version),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	if err := appMiddleware.SetupValidation(); err != nil {
		return nil, fmt.Errorf("registering validation rules: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component(lgr, "http")))
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}

// corsConfig allows the configured origins with credentials. A lone "*"
// opens the API to every origin, which browsers only accept without credentials.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", appMiddleware.RequestIDHeader},
		ExposeHeaders: []string{appMiddleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
