package dto

import (
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

// CreateAchievementRequest creates an achievement template
type CreateAchievementRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
	Icon        string `json:"icon" binding:"max=32"`
	Points      int    `json:"points" binding:"min=0"`
	CourseID    *int64 `json:"course_id,omitempty" binding:"omitempty,min=1"`
	IsPublic    bool   `json:"is_public"`
}

// AssignAchievementRequest selects exactly one audience for a template.
// Only one of StudentIDs, Group, Department, CourseID and AllStudents may be set.
type AssignAchievementRequest struct {
	AchievementID int64   `json:"achievement_id" binding:"required,min=1"`
	StudentIDs    []int64 `json:"student_ids,omitempty" binding:"omitempty,dive,min=1"`
	Group         string  `json:"group,omitempty" binding:"omitempty,groupname"`
	Department    string  `json:"department,omitempty"`
	CourseID      *int64  `json:"course_id,omitempty"`
	AllStudents   bool    `json:"all_students,omitempty"`
}

// Per-student assignment outcomes
const (
	AssignGranted        = "granted"
	AssignAlreadyGranted = "already_granted"
	AssignNotFound       = "not_found"
	AssignFailed         = "failed"
)

// AssignResult is the outcome of granting to one student
type AssignResult struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status" example:"granted"`
	Error     string `json:"error,omitempty"`
}

// AssignAchievementResponse summarizes a bulk grant
type AssignAchievementResponse struct {
	Message        string         `json:"message"`
	GrantedCount   int            `json:"granted_count"`
	AlreadyGranted int            `json:"already_granted"`
	FailedCount    int            `json:"failed_count"`
	Results        []AssignResult `json:"results"`
}

// AchievementResponse is a template as listed in the catalog
type AchievementResponse struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	Points      int                   `json:"points"`
	CourseID    *int64                `json:"course_id,omitempty"`
	IsPublic    bool                  `json:"is_public"`
	Status      models.TemplateStatus `json:"status"`
	CreatedByID *int64                `json:"created_by_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewAchievementResponse maps a template to its API form
func NewAchievementResponse(t *models.AchievementTemplate) AchievementResponse {
	return AchievementResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		Points:      t.Points,
		CourseID:    t.CourseID,
		IsPublic:    t.IsPublic,
		Status:      t.Status,
		CreatedByID: t.CreatedByID,
		CreatedAt:   t.CreatedAt,
	}
}

// UnlockedAchievement is a grant as seen by the student
type UnlockedAchievement struct {
	AchievementResponse
	UnlockedAt time.Time `json:"unlocked_at"`
}

// StudentAchievementsResponse lists the achievements of one student
type StudentAchievementsResponse struct {
	StudentID    int64                 `json:"student_id"`
	TotalPoints  int                   `json:"total_points"`
	Achievements []UnlockedAchievement `json:"achievements"`
}

// AchievementHolder is a student holding a template
type AchievementHolder struct {
	StudentID  int64     `json:"student_id"`
	Name       string    `json:"name"`
	Group      string    `json:"group"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DeleteAchievementResponse reports a soft or hard delete
type DeleteAchievementResponse struct {
	Message       string `json:"message"`
	Permanent     bool   `json:"permanent"`
	RemovedGrants int64  `json:"removed_grants"`
}
