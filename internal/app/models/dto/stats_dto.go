package dto

// GroupStatsResponse is the rollup of one group
type GroupStatsResponse struct {
	Group          string  `json:"group" example:"ИТ-21"`
	Hash           string  `json:"hash" example:"0JjQoi0yMQ"`
	Department     string  `json:"department,omitempty" example:"ИТ"`
	TotalStudents  int     `json:"total_students" example:"30"`
	AverageGPA     float64 `json:"average_gpa" example:"4.12"`
	AttendanceRate float64 `json:"attendance_rate" example:"81.3"`
	HeadmanID      *int64  `json:"headman_id,omitempty"`

	// Only the single group view fills these.
	Students []GroupMemberResponse `json:"students,omitempty"`
	Courses  []GroupCourseStats    `json:"courses,omitempty"`
}

// GroupMemberResponse is one student of a group view
type GroupMemberResponse struct {
	ID           int64  `json:"id" example:"1"`
	Name         string `json:"name" example:"Иванов Иван"`
	Hash         string `json:"hash" example:"3f2a9c0b1d4e5f67"`
	IsHeadman    bool   `json:"is_headman"`
	PresentToday bool   `json:"present_today"`
}

// GroupCourseTeacherStats is how a group does in one course under one teacher
type GroupCourseTeacherStats struct {
	TeacherID      int64   `json:"teacher_id"`
	TeacherName    string  `json:"teacher_name"`
	AverageGrade   float64 `json:"average_grade" example:"4.2"`
	AttendanceRate float64 `json:"attendance_rate" example:"85"`
}

// GroupCourseStats is a course the group is graded in, with its teachers
type GroupCourseStats struct {
	CourseID   int64                     `json:"course_id"`
	CourseName string                    `json:"course_name"`
	CourseCode string                    `json:"course_code,omitempty"`
	Teachers   []GroupCourseTeacherStats `json:"teachers"`
}

// CourseBreakdownItem is the course performance of one group taught by one teacher
type CourseBreakdownItem struct {
	TeacherID      int64   `json:"teacher_id"`
	TeacherName    string  `json:"teacher_name"`
	Group          string  `json:"group"`
	Students       int     `json:"students"`
	AverageGrade   float64 `json:"average_grade"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// CourseStatsResponse is the performance summary of a course
type CourseStatsResponse struct {
	CourseID       int64                 `json:"course_id"`
	CourseName     string                `json:"course_name"`
	Group          string                `json:"group,omitempty"`
	TotalStudents  int                   `json:"total_students"`
	AverageGrade   float64               `json:"average_grade" example:"4.05"`
	AttendanceRate float64               `json:"attendance_rate" example:"78.2"`
	Breakdown      []CourseBreakdownItem `json:"breakdown,omitempty"`
}

// TeacherStatsResponse summarizes a teacher's teaching load
type TeacherStatsResponse struct {
	Teacher        TeacherResponse  `json:"teacher"`
	Courses        []CourseResponse `json:"courses"`
	TotalStudents  int              `json:"total_students"`
	GradesIssued   int64            `json:"grades_issued"`
	AverageGrade   float64          `json:"average_grade"`
	AttendanceRate float64          `json:"attendance_rate"`
}

// DashboardStatsResponse is the landing page summary for the caller's visible students
type DashboardStatsResponse struct {
	TotalStudents  int     `json:"total_students"`
	TotalGroups    int     `json:"total_groups"`
	TotalCourses   int     `json:"total_courses"`
	AverageGrade   float64 `json:"average_grade"`
	AttendanceRate float64 `json:"attendance_rate"`
	PresentToday   int     `json:"present_today"`
}

// LeaderboardEntryResponse is one leaderboard row
type LeaderboardEntryResponse struct {
	Position       int     `json:"position" example:"1"`
	StudentID      int64   `json:"student_id" example:"42"`
	Name           string  `json:"name" example:"Иванов Иван"`
	Group          string  `json:"group" example:"ИТ-21"`
	Department     string  `json:"department,omitempty" example:"ИТ"`
	GPA            float64 `json:"gpa" example:"4.92"`
	GradeCount     int64   `json:"grade_count" example:"14"`
	AttendanceRate float64 `json:"attendance_rate" example:"95.5"`
}

// RefreshGroupsResponse reports a rollup refresh
type RefreshGroupsResponse struct {
	Updated int `json:"updated"`
}
