package dto

import (
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

// StudentResponse is a student row as exposed by the API
type StudentResponse struct {
	ID         int64  `json:"id" example:"42"`
	Hash       string `json:"hash" example:"9f86d081884c7d65"`
	Name       string `json:"name" example:"Иванов Иван"`
	Email      string `json:"email,omitempty"`
	Group      string `json:"group" example:"ИТ-21"`
	Department string `json:"department,omitempty" example:"ИТ"`
	Year       int    `json:"year" example:"2"`
	IsHeadman  bool   `json:"is_headman"`
}

// PredictionResponse is the heuristic outlook of a student
type PredictionResponse struct {
	BurnoutRisk        float64 `json:"burnout_risk" example:"0.25"`
	SuccessProbability float64 `json:"success_probability" example:"0.71"`
	PredictedGPA       float64 `json:"predicted_gpa" example:"4.3"`
}

// StudentStatsResponse is the single-student stats payload
type StudentStatsResponse struct {
	Student           StudentResponse     `json:"student"`
	GPA               float64             `json:"gpa" example:"4.25"`
	AttendanceRate    float64             `json:"attendance_rate" example:"87.5"`
	AchievementsCount int                 `json:"achievements_count" example:"3"`
	Rank              int                 `json:"rank" example:"12"`
	TotalStudents     int                 `json:"total_students" example:"340"`
	Predictions       *PredictionResponse `json:"predictions,omitempty"`
}

// BulkStudentStats is one entry of the bulk student stats map
type BulkStudentStats struct {
	GPA            float64 `json:"gpa" example:"4.25"`
	AttendanceRate float64 `json:"attendance_rate" example:"87.5"`
	PresentToday   bool    `json:"present_today"`
}

// SetHeadmanRequest toggles the headman flag of a student
type SetHeadmanRequest struct {
	IsHeadman *bool `json:"is_headman" binding:"required"`
}

// GradeResponse is a grade row with its course name
type GradeResponse struct {
	ID         int64            `json:"id"`
	CourseID   int64            `json:"course_id"`
	CourseName string           `json:"course_name,omitempty"`
	TeacherID  *int64           `json:"teacher_id,omitempty"`
	Value      float64          `json:"value" example:"5"`
	Type       models.GradeType `json:"type" example:"exam"`
	Date       string           `json:"date" example:"2025-03-14"`
}

// CreateGradeRequest records a grade
type CreateGradeRequest struct {
	StudentID int64            `json:"student_id" binding:"required,min=1"`
	CourseID  int64            `json:"course_id" binding:"required,min=1"`
	Value     float64          `json:"value" binding:"required,min=2,max=5"`
	Type      models.GradeType `json:"type" binding:"omitempty,oneof=exam test coursework homework"`
	Date      string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// AttendanceResponse is an attendance row
type AttendanceResponse struct {
	ID        int64      `json:"id"`
	CourseID  *int64     `json:"course_id,omitempty"`
	Date      string     `json:"date" example:"2025-03-14"`
	Present   bool       `json:"present"`
	Building  string     `json:"building,omitempty"`
	EntryTime *time.Time `json:"entry_time,omitempty"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`
}

// StudentAttendanceResponse lists a student's records with their rate
type StudentAttendanceResponse struct {
	StudentID      int64                `json:"student_id"`
	AttendanceRate float64              `json:"attendance_rate"`
	Present        int64                `json:"present"`
	Total          int64                `json:"total"`
	Records        []AttendanceResponse `json:"records"`
}
