package dto

// CourseResponse is a course with its teachers
type CourseResponse struct {
	ID         int64   `json:"id" example:"3"`
	Name       string  `json:"name" example:"Базы данных"`
	Code       string  `json:"code,omitempty" example:"DB-101"`
	Credits    int     `json:"credits" example:"4"`
	Semester   int     `json:"semester" example:"3"`
	TeacherIDs []int64 `json:"teacher_ids"`
}

// TeacherResponse is a teacher profile
type TeacherResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
}

// ScheduleEntryResponse is one timetable slot
type ScheduleEntryResponse struct {
	ID         int64  `json:"id"`
	CourseID   int64  `json:"course_id"`
	CourseName string `json:"course_name,omitempty"`
	TeacherID  *int64 `json:"teacher_id,omitempty"`
	Group      string `json:"group"`
	DayOfWeek  int    `json:"day_of_week" example:"1"`
	StartTime  string `json:"start_time" example:"09:00"`
	EndTime    string `json:"end_time" example:"10:30"`
	Room       string `json:"room,omitempty" example:"А-101"`
	Type       string `json:"type" example:"lecture"`
}
