package models

import "time"

// Course is a subject taught to one or more groups.
type Course struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" example:"Базы данных"`
	Code      string    `json:"code" db:"code" example:"DB-101"`
	Credits   int       `json:"credits" db:"credits"`
	Semester  int       `json:"semester" db:"semester"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CourseTeacher links a teacher to a course; it scopes what the teacher may see and do.
type CourseTeacher struct {
	CourseID  int64 `json:"course_id" db:"course_id"`
	TeacherID int64 `json:"teacher_id" db:"teacher_id"`
}

// Teacher is a member of teaching staff.
type Teacher struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Department string    `json:"department" db:"department"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ScheduleEntry is one weekly slot of a course.
type ScheduleEntry struct {
	ID        int64  `json:"id" db:"id"`
	CourseID  int64  `json:"course_id" db:"course_id"`
	TeacherID *int64 `json:"teacher_id,omitempty" db:"teacher_id"`
	GroupName string `json:"group,omitempty" db:"group_name"`
	DayOfWeek int    `json:"day_of_week" db:"day_of_week"` // 0 = Monday
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
	Room      string `json:"room" db:"room"`
	Type      string `json:"type" db:"type"`
}
