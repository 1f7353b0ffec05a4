package models

import "time"

// GradeType classifies a grade.
type GradeType string

const (
	GradeExam       GradeType = "exam"
	GradeTest       GradeType = "test"
	GradeCoursework GradeType = "coursework"
	GradeHomework   GradeType = "homework"
)

const (
	MinGradeValue = 2.0
	MaxGradeValue = 5.0
)

// Grade is an immutable assessment result on the 2..5 scale.
// TeacherID records who issued it and is nil for imported rows.
type Grade struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"student_id" db:"student_id"`
	CourseID  int64     `json:"course_id" db:"course_id"`
	TeacherID *int64    `json:"teacher_id,omitempty" db:"teacher_id"`
	Value     float64   `json:"value" db:"value"`
	Type      GradeType `json:"type" db:"type"`
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Attendance is one presence record. Several rows per student per day are legal,
// CourseID is nil for building-entry records not tied to a class.
type Attendance struct {
	ID        int64      `json:"id" db:"id"`
	StudentID int64      `json:"student_id" db:"student_id"`
	CourseID  *int64     `json:"course_id,omitempty" db:"course_id"`
	Date      time.Time  `json:"date" db:"date"`
	Present   bool       `json:"present" db:"present"`
	Building  string     `json:"building,omitempty" db:"building"`
	EntryTime *time.Time `json:"entry_time,omitempty" db:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty" db:"exit_time"`
}
