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

// StudentController handles student records, stats and the headman flag
type StudentController struct {
	studentService services.StudentService
	statsService   services.StatsService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, statsService services.StatsService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		statsService:   statsService,
		logger:         logger,
	}
}

// ListStudents lists the students visible to the caller
// @Summary List students
// @Description Students see themselves, teachers their roster, admins everyone.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param group query []string false "Group name filter (repeatable or comma separated)" collectionFormat(multi)
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.StudentResponse}}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	page := helpers.ParsePaginationParams(ctx)
	resp, err := c.studentService.ListStudents(ctx.Request.Context(), actor, groupsQuery(ctx, "group", "groups"), page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetMe returns the student profile linked to the caller
// @Summary My student profile
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 403 {object} dto.ErrorResponse "Account is not linked to a student"
// @Router /students/me [get]
func (c *StudentController) GetMe(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.GetMe(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// GetByHash resolves a student from the opaque hash used in shareable URLs
// @Summary Get student by hash
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Student hash"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed hash"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/by-hash/{hash} [get]
func (c *StudentController) GetByHash(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.GetByHash(ctx.Request.Context(), actor, ctx.Param("hash"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// GetStudentStats returns the stats payload of one student
// @Summary Student stats
// @Description GPA, attendance rate over the window, achievement count, rank among all students and predictions.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param from query string false "Attendance window start (YYYY-MM-DD)"
// @Param to query string false "Attendance window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.StudentStatsResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid id or date"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudentStats(ctx *gin.Context) {
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

	stats, err := c.statsService.GetStudentStats(ctx.Request.Context(), actor, id, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetBulkStudentStats returns stats for every visible student in one pass
// @Summary Bulk student stats
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param from query string false "Attendance window start (YYYY-MM-DD)"
// @Param to query string false "Attendance window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=map[string]dto.BulkStudentStats}
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Router /students/bulk-stats [get]
func (c *StudentController) GetBulkStudentStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetBulkStudentStats(ctx.Request.Context(), actor, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// GetStudent returns the profile of one student
// @Summary Student profile
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/profile [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	student, err := c.studentService.GetStudent(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// GetGrades lists the grades of a student, newest first
// @Summary Student grades
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param course_id query int false "Course filter"
// @Success 200 {object} dto.APIResponse{data=[]dto.GradeResponse}
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/grades [get]
func (c *StudentController) GetGrades(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "course_id")
	if !ok {
		return
	}

	grades, err := c.studentService.GetGrades(ctx.Request.Context(), actor, id, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grades))
}

// GetAttendance lists the attendance of a student
// @Summary Student attendance
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.StudentAttendanceResponse}
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/attendance [get]
func (c *StudentController) GetAttendance(ctx *gin.Context) {
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

	resp, err := c.studentService.GetAttendance(ctx.Request.Context(), actor, id, rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetAttendanceByHash lists the attendance of a student addressed by hash
// @Summary Student attendance by hash
// @Description Backs the attendance calendar of shareable student pages.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Student hash"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.StudentAttendanceResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed hash or date"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/by-hash/{hash}/attendance [get]
func (c *StudentController) GetAttendanceByHash(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	rng, ok := dateRangeQuery(ctx)
	if !ok {
		return
	}

	resp, err := c.studentService.GetAttendanceByHash(ctx.Request.Context(), actor, ctx.Param("hash"), rng)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SetHeadman sets or clears the headman flag
// @Summary Set group headman
// @Description Setting the flag atomically clears the previous headman of the student's group.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.SetHeadmanRequest true "Headman flag"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request or student has no group"
// @Failure 403 {object} dto.ErrorResponse "Teachers and admins only"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/headman [put]
func (c *StudentController) SetHeadman(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SetHeadmanRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.SetHeadman(ctx.Request.Context(), actor, id, *req.IsHeadman)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("studentID", id).Bool("isHeadman", *req.IsHeadman).Int64("by", actor.UserID).Msg("Headman flag updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// CreateGrade records a grade
// @Summary Record a grade
// @Description Teachers may grade only in their own courses.
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGradeRequest true "Grade"
// @Success 201 {object} dto.APIResponse{data=dto.GradeResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid grade"
// @Failure 403 {object} dto.ErrorResponse "Outside own courses"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /grades [post]
func (c *StudentController) CreateGrade(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateGradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.studentService.CreateGrade(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(grade))
}
