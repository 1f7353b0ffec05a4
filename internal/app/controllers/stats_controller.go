package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/middleware"
	"github.com/mirea/edupulse/internal/pkg/grouphash"
	"github.com/rs/zerolog"
)

// StatsController serves the group, course, teacher, dashboard and leaderboard aggregates
type StatsController struct {
	statsService services.StatsService
	logger       zerolog.Logger
}

// NewStatsController creates a new StatsController
func NewStatsController(statsService services.StatsService, logger zerolog.Logger) *StatsController {
	return &StatsController{statsService: statsService, logger: logger}
}

// GetGroupStats returns the rollup of one group with its members and course breakdown
// @Summary Group stats
// @Description The group name is passed as its URL-safe hash. Students may only read their own group, and only as its headman.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Group hash"
// @Param from query string false "Attendance window start (YYYY-MM-DD)"
// @Param to query string false "Attendance window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.GroupStatsResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed hash"
// @Failure 403 {object} dto.ErrorResponse "Not the headman of this group"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{hash}/stats [get]
func (c *StatsController) GetGroupStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	name, err := grouphash.Decode(ctx.Param("hash"))
	if err != nil {
		respondBadRequest(ctx, "Invalid group hash", err.Error())
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetGroupStats(ctx.Request.Context(), actor, name, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetBulkGroupStats returns the rollup of every group keyed by name
// @Summary Bulk group stats
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param from query string false "Attendance window start (YYYY-MM-DD)"
// @Param to query string false "Attendance window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=map[string]dto.GroupStatsResponse}
// @Failure 403 {object} dto.ErrorResponse "Teachers and admins only"
// @Router /groups/bulk-stats [get]
func (c *StatsController) GetBulkGroupStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetBulkGroupStats(ctx.Request.Context(), actor, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// RefreshGroups recomputes and stores the rollup of every group
// @Summary Refresh group rollups
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RefreshGroupsResponse}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /groups/refresh [post]
func (c *StatsController) RefreshGroups(ctx *gin.Context) {
	updated, err := c.statsService.RefreshGroupRollups(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int("groups", updated).Msg("Group rollups refreshed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RefreshGroupsResponse{Updated: updated}))
}

// GetCourseStats returns the performance summary of a course
// @Summary Course stats
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param group query string false "Restrict to one group"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.CourseStatsResponse}
// @Failure 403 {object} dto.ErrorResponse "Outside own courses"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id}/stats [get]
func (c *StatsController) GetCourseStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetCourseStats(ctx.Request.Context(), actor, id, ctx.Query("group"), rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetTeacherStats summarizes a teacher's courses
// @Summary Teacher stats
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherStatsResponse}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/stats [get]
func (c *StatsController) GetTeacherStats(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetTeacherStats(ctx.Request.Context(), id, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetDashboardStats returns the landing page summary
// @Summary Dashboard stats
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param groups query string false "Comma separated group names"
// @Param department query string false "Department code"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardStatsResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown department"
// @Router /dashboard/stats [get]
func (c *StatsController) GetDashboardStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetDashboardStats(ctx.Request.Context(), actor, groupsQuery(ctx, "groups", "group"), ctx.Query("department"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetLeaderboard returns the top students by GPA
// @Summary Leaderboard
// @Description Teachers see the students of their courses ranked on the grades given in those courses.
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of rows" default(10)
// @Param group query []string false "Group filter" collectionFormat(multi)
// @Param department query string false "Department code"
// @Param min_grades query int false "Minimum number of grades"
// @Success 200 {object} dto.APIResponse{data=[]dto.LeaderboardEntryResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /leaderboard [get]
func (c *StatsController) GetLeaderboard(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	q := services.LeaderboardQuery{
		Groups:     groupsQuery(ctx, "group", "groups"),
		Department: ctx.Query("department"),
	}
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondBadRequest(ctx, "Invalid limit", "must be a positive integer")
			return
		}
		q.Limit = limit
	}
	if raw := ctx.Query("min_grades"); raw != "" {
		minGrades, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondBadRequest(ctx, "Invalid min_grades", "must be an integer")
			return
		}
		q.MinGrades = &minGrades
	}

	entries, err := c.statsService.GetLeaderboard(ctx.Request.Context(), actor, q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries))
}
