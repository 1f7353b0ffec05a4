package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mirea/edupulse/internal/app/controllers"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/middleware"
)

// Controllers bundles every HTTP handler set
type Controllers struct {
	Auth        *controllers.AuthController
	Students    *controllers.StudentController
	Stats       *controllers.StatsController
	Achievement *controllers.AchievementController
	Catalog     *controllers.CatalogController
	Logs        *controllers.LogController
	Health      *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", ctrl.Health.Ping)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", ctrl.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	staff := authMiddleware.RoleRequired(models.RoleTeacher, models.RoleAdmin)
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	authenticated.GET("/auth/me", ctrl.Auth.Me)
	authenticated.POST("/auth/logout", ctrl.Auth.Logout)

	students := authenticated.Group("/students")
	{
		students.GET("", ctrl.Students.ListStudents)
		students.GET("/me", ctrl.Students.GetMe)
		students.GET("/bulk-stats", ctrl.Students.GetBulkStudentStats)
		students.GET("/by-hash/:hash", ctrl.Students.GetByHash)
		students.GET("/by-hash/:hash/attendance", ctrl.Students.GetAttendanceByHash)
		students.GET("/:id", ctrl.Students.GetStudentStats)
		students.GET("/:id/profile", ctrl.Students.GetStudent)
		students.GET("/:id/grades", ctrl.Students.GetGrades)
		students.GET("/:id/attendance", ctrl.Students.GetAttendance)
		students.PUT("/:id/headman", staff, ctrl.Students.SetHeadman)
	}

	authenticated.POST("/grades", staff, ctrl.Students.CreateGrade)

	groups := authenticated.Group("/groups")
	{
		groups.GET("/bulk-stats", staff, ctrl.Stats.GetBulkGroupStats)
		groups.GET("/:hash/stats", ctrl.Stats.GetGroupStats)
		groups.POST("/refresh", adminOnly, ctrl.Stats.RefreshGroups)
	}

	courses := authenticated.Group("/courses")
	{
		courses.GET("", ctrl.Catalog.ListCourses)
		courses.GET("/:id", ctrl.Catalog.GetCourse)
		courses.GET("/:id/stats", ctrl.Stats.GetCourseStats)
	}

	teachers := authenticated.Group("/teachers", adminOnly)
	{
		teachers.GET("", ctrl.Catalog.ListTeachers)
		teachers.GET("/:id/stats", ctrl.Stats.GetTeacherStats)
	}

	authenticated.GET("/schedule", ctrl.Catalog.ListSchedule)
	authenticated.GET("/dashboard/stats", ctrl.Stats.GetDashboardStats)
	authenticated.GET("/leaderboard", ctrl.Stats.GetLeaderboard)

	achievements := authenticated.Group("/achievements")
	{
		achievements.GET("", ctrl.Achievement.ListAchievements)
		achievements.GET("/students/:studentId", ctrl.Achievement.GetStudentAchievements)

		achievementsStaff := achievements.Group("", staff)
		{
			achievementsStaff.POST("", ctrl.Achievement.CreateAchievement)
			achievementsStaff.POST("/assign", ctrl.Achievement.AssignAchievement)
			achievementsStaff.DELETE("/:id", ctrl.Achievement.DeleteAchievement)
			achievementsStaff.POST("/:id/restore", ctrl.Achievement.RestoreAchievement)
			achievementsStaff.DELETE("/:id/students/:studentId", ctrl.Achievement.RevokeAchievement)
		}
		achievements.GET("/:id/students", adminOnly, ctrl.Achievement.GetAchievementStudents)
	}

	logs := authenticated.Group("/logs", adminOnly)
	{
		logs.GET("/activity", ctrl.Logs.ListActivity)
		logs.GET("/login", ctrl.Logs.ListLogins)
	}
}
