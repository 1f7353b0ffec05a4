package services

import (
	"context"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

// StudentStore reads and updates student rows.
type StudentStore interface {
	GetStudentByID(ctx context.Context, id int64) (*models.Student, error)
	GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error)
	// ListStudents returns the page selected by filter.Offset/Limit (Limit 0 = all) and the unpaged total.
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error)
	// StudentIDsForCourses returns students with a grade or an attendance record in any of the courses.
	StudentIDsForCourses(ctx context.Context, courseIDs []int64) ([]int64, error)
	// SetHeadman makes the student the only headman of their group in one transaction.
	SetHeadman(ctx context.Context, studentID int64) (*models.Student, error)
	// ClearHeadman drops the flag and unlinks the student from the group's headman_id.
	ClearHeadman(ctx context.Context, studentID int64) (*models.Student, error)
	CreateStudent(ctx context.Context, s *models.Student) error
}

// GroupStore reads groups and writes back derived rollups.
type GroupStore interface {
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	UpdateGroupRollup(ctx context.Context, groupID int64, rollup models.GroupRollup) error
	CreateGroup(ctx context.Context, g *models.Group) error
}

// CourseStore reads courses, teachers, their links and the timetable.
type CourseStore interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	// ListCourses returns the given courses, or every course when ids is nil.
	ListCourses(ctx context.Context, ids []int64) ([]models.Course, error)
	CourseIDsForTeacher(ctx context.Context, teacherID int64) ([]int64, error)
	// ListCourseTeachers returns links for the given courses, or every link when courseIDs is nil.
	ListCourseTeachers(ctx context.Context, courseIDs []int64) ([]models.CourseTeacher, error)
	GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error)
	// ListTeachers returns the given teachers, or every teacher when ids is nil.
	ListTeachers(ctx context.Context, ids []int64) ([]models.Teacher, error)
	ListSchedule(ctx context.Context, courseIDs []int64, groupName string) ([]models.ScheduleEntry, error)
	CreateCourse(ctx context.Context, c *models.Course) error
	CreateTeacher(ctx context.Context, t *models.Teacher) error
	LinkCourseTeacher(ctx context.Context, link models.CourseTeacher) error
}

// GradeStore reads raw and summarized grades.
type GradeStore interface {
	GradeSummaries(ctx context.Context, filter models.SummaryFilter) ([]models.GradeSummary, error)
	ListGrades(ctx context.Context, filter models.SummaryFilter) ([]models.Grade, error)
	CreateGrade(ctx context.Context, g *models.Grade) error
}

// AttendanceStore reads raw and summarized attendance.
type AttendanceStore interface {
	AttendanceSummaries(ctx context.Context, filter models.SummaryFilter) ([]models.AttendanceSummary, error)
	ListAttendance(ctx context.Context, filter models.SummaryFilter) ([]models.Attendance, error)
	// PresentStudentIDs returns which of the students have a present record on day.
	PresentStudentIDs(ctx context.Context, day time.Time, studentIDs []int64) ([]int64, error)
	CreateAttendance(ctx context.Context, a *models.Attendance) error
}

// AchievementStore persists templates and grants.
type AchievementStore interface {
	CreateTemplate(ctx context.Context, t *models.AchievementTemplate) error
	GetTemplateByID(ctx context.Context, id int64) (*models.AchievementTemplate, error)
	ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]models.AchievementTemplate, error)
	SetTemplateStatus(ctx context.Context, id int64, status models.TemplateStatus) error
	// DeleteTemplate removes the template and all its grants atomically and returns the number of grants removed.
	DeleteTemplate(ctx context.Context, id int64) (int64, error)
	// GrantAchievement inserts the grant unless it exists; created reports whether a row was written.
	GrantAchievement(ctx context.Context, studentID, templateID int64, at time.Time) (bool, error)
	RevokeAchievement(ctx context.Context, studentID, templateID int64) error
	ListStudentGrants(ctx context.Context, studentID int64) ([]models.StudentAchievement, error)
	ListTemplateGrants(ctx context.Context, templateID int64) ([]models.StudentAchievement, error)
	// CountGrants counts grants per student regardless of template status.
	CountGrants(ctx context.Context, studentIDs []int64) (map[int64]int, error)
}

// UserStore persists login accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// LogStore persists login sessions and the audit trail.
type LogStore interface {
	CreateLoginLog(ctx context.Context, l *models.LoginLog) error
	CloseLatestLoginLog(ctx context.Context, userID int64, at time.Time) error
	ListLoginLogs(ctx context.Context, filter models.LogFilter) ([]models.LoginLog, int64, error)
	CreateActivityLog(ctx context.Context, l *models.ActivityLog) error
	ListActivityLogs(ctx context.Context, filter models.LogFilter) ([]models.ActivityLog, int64, error)
}

// Stores bundles every store a service may need. Both the PostgreSQL
// repositories and the in-memory store can fill it.
type Stores struct {
	Students     StudentStore
	Groups       GroupStore
	Courses      CourseStore
	Grades       GradeStore
	Attendance   AttendanceStore
	Achievements AchievementStore
	Users        UserStore
	Logs         LogStore
}
