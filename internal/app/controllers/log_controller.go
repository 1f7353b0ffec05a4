package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/middleware"
	"github.com/mirea/edupulse/internal/pkg/helpers"
)

// LogController exposes the audit trail and login sessions to admins
type LogController struct {
	logService services.LogService
}

// NewLogController creates a new LogController
func NewLogController(logService services.LogService) *LogController {
	return &LogController{logService: logService}
}

func (c *LogController) filter(ctx *gin.Context) (models.LogFilter, bool) {
	userID, ok := optionalIDQuery(ctx, "user_id")
	if !ok {
		return models.LogFilter{}, false
	}
	return models.LogFilter{
		UserID: userID,
		Action: ctx.Query("action"),
		Table:  ctx.Query("table"),
	}, true
}

// ListActivity pages through the audit trail, newest first
// @Summary Activity log
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Actor filter"
// @Param action query string false "Action filter"
// @Param table query string false "Table filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ActivityLogResponse}}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /logs/activity [get]
func (c *LogController) ListActivity(ctx *gin.Context) {
	filter, ok := c.filter(ctx)
	if !ok {
		return
	}

	resp, err := c.logService.ListActivity(ctx.Request.Context(), filter, helpers.ParsePaginationParams(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListLogins pages through login sessions, newest first
// @Summary Login log
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "User filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.LoginLogResponse}}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /logs/login [get]
func (c *LogController) ListLogins(ctx *gin.Context) {
	filter, ok := c.filter(ctx)
	if !ok {
		return
	}

	resp, err := c.logService.ListLogins(ctx.Request.Context(), filter, helpers.ParsePaginationParams(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
