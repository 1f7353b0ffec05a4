package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/middleware"
	"github.com/mirea/edupulse/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// AchievementController handles achievement templates and grants
type AchievementController struct {
	achievementService services.AchievementService
	logger             zerolog.Logger
}

// NewAchievementController creates a new AchievementController
func NewAchievementController(achievementService services.AchievementService, logger zerolog.Logger) *AchievementController {
	return &AchievementController{
		achievementService: achievementService,
		logger:             logger,
	}
}

// CreateAchievement creates a template
// @Summary Create achievement
// @Description Teachers must scope the template to one of their courses or make it public.
// @Tags achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAchievementRequest true "Template"
// @Success 201 {object} dto.APIResponse{data=dto.AchievementResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid template"
// @Failure 403 {object} dto.ErrorResponse "Teachers and admins only"
// @Router /achievements [post]
func (c *AchievementController) CreateAchievement(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateAchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tpl, err := c.achievementService.CreateAchievement(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(tpl))
}

// ListAchievements lists the templates visible to the caller
// @Summary List achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param course_id query int false "Course filter"
// @Param include_deleted query bool false "Include tombstoned templates (admins only)"
// @Success 200 {object} dto.APIResponse{data=[]dto.AchievementResponse}
// @Failure 403 {object} dto.ErrorResponse "include_deleted is admin only"
// @Router /achievements [get]
func (c *AchievementController) ListAchievements(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "course_id")
	if !ok {
		return
	}

	list, err := c.achievementService.ListAchievements(ctx.Request.Context(), actor, courseID, helpers.QueryBool(ctx, "include_deleted"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list))
}

// AssignAchievement grants a template to an audience
// @Summary Assign achievement
// @Description Exactly one of student_ids, group, department, course_id or all_students selects the audience.
// @Description Re-granting is a no-op reported as already_granted; missing students are reported per item.
// @Tags achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssignAchievementRequest true "Audience"
// @Success 200 {object} dto.APIResponse{data=dto.AssignAchievementResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid audience"
// @Failure 403 {object} dto.ErrorResponse "Audience outside own roster"
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /achievements/assign [post]
func (c *AchievementController) AssignAchievement(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.AssignAchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.achievementService.AssignAchievement(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("achievementID", req.AchievementID).
		Int("granted", resp.GrantedCount).
		Int("alreadyGranted", resp.AlreadyGranted).
		Int("failed", resp.FailedCount).
		Msg("Achievement assigned")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// DeleteAchievement tombstones or permanently removes a template
// @Summary Delete achievement
// @Description permanent=true removes the template and its grants and requires confirm=true.
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param permanent query bool false "Hard delete"
// @Param confirm query bool false "Confirm hard delete"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteAchievementResponse}
// @Failure 400 {object} dto.ErrorResponse "Hard delete not confirmed"
// @Failure 403 {object} dto.ErrorResponse "Not the creator"
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /achievements/{id} [delete]
func (c *AchievementController) DeleteAchievement(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.achievementService.DeleteAchievement(ctx.Request.Context(), actor, id,
		helpers.QueryBool(ctx, "permanent"), helpers.QueryBool(ctx, "confirm"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RestoreAchievement brings back a tombstoned template
// @Summary Restore achievement
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} dto.APIResponse{data=dto.AchievementResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the creator"
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /achievements/{id}/restore [post]
func (c *AchievementController) RestoreAchievement(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	tpl, err := c.achievementService.RestoreAchievement(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tpl))
}

// RevokeAchievement removes one grant
// @Summary Revoke achievement
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse "Revoked"
// @Failure 403 {object} dto.ErrorResponse "Outside own roster"
// @Failure 404 {object} dto.ErrorResponse "Grant not found"
// @Router /achievements/{id}/students/{studentId} [delete]
func (c *AchievementController) RevokeAchievement(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}

	if err := c.achievementService.RevokeAchievement(ctx.Request.Context(), actor, id, studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Achievement revoked"))
}

// GetStudentAchievements lists the grants of a student
// @Summary Student achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentAchievementsResponse}
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /achievements/students/{studentId} [get]
func (c *AchievementController) GetStudentAchievements(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}

	resp, err := c.achievementService.GetStudentAchievements(ctx.Request.Context(), actor, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetAchievementStudents lists the holders of a template
// @Summary Achievement holders
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.AchievementHolder}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Achievement not found"
// @Router /achievements/{id}/students [get]
func (c *AchievementController) GetAchievementStudents(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	holders, err := c.achievementService.GetAchievementStudents(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(holders))
}
