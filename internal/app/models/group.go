package models

import "time"

// Group is an academic group. The rollup columns are derived data written back
// by the aggregation refresh and must not be used as a source of truth.
type Group struct {
	ID                    int64     `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name" example:"ИТ-21"`
	Department            string    `json:"department" db:"department" example:"ИТ"`
	TotalStudents         int       `json:"total_students" db:"total_students"`
	AverageGPA            float64   `json:"average_gpa" db:"average_gpa"`
	AverageAttendanceRate float64   `json:"average_attendance_rate" db:"average_attendance_rate"`
	HeadmanID             *int64    `json:"headman_id,omitempty" db:"headman_id"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// GroupRollup is the derived part of a group row.
type GroupRollup struct {
	TotalStudents         int
	AverageGPA            float64
	AverageAttendanceRate float64
}
