package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/app/services"
	"github.com/mirea/edupulse/internal/middleware"
)

// CatalogController serves courses, teachers and the timetable
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// ListCourses lists the courses visible to the caller
// @Summary List courses
// @Description Teachers see their own courses; students are not allowed.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse}
// @Failure 403 {object} dto.ErrorResponse "Students cannot browse courses"
// @Router /courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	courses, err := c.catalogService.ListCourses(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// GetCourse returns one course
// @Summary Get course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 403 {object} dto.ErrorResponse "Outside own courses"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.catalogService.GetCourse(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// ListTeachers lists all teachers
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherResponse}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /teachers [get]
func (c *CatalogController) ListTeachers(ctx *gin.Context) {
	teachers, err := c.catalogService.ListTeachers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(teachers))
}

// ListSchedule returns timetable entries
// @Summary Timetable
// @Description Students see their own group; teachers see their own courses.
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param group query string false "Group name"
// @Param course_id query int false "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ScheduleEntryResponse}
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Router /schedule [get]
func (c *CatalogController) ListSchedule(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "course_id")
	if !ok {
		return
	}

	entries, err := c.catalogService.ListSchedule(ctx.Request.Context(), actor, ctx.Query("group"), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries))
}
