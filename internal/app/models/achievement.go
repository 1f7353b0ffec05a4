package models

import "time"

// TemplateStatus is the lifecycle state of an achievement template.
type TemplateStatus string

const (
	TemplateActive     TemplateStatus = "active"
	TemplateTombstoned TemplateStatus = "tombstoned"
)

// DefaultAchievementIcon is used when a template is created without an icon.
const DefaultAchievementIcon = "🏆"

// AchievementTemplate describes an award that can be granted to students.
// A template is either public (grantable by any teacher) or scoped to a course, never both.
type AchievementTemplate struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Icon        string         `json:"icon" db:"icon"`
	Points      int            `json:"points" db:"points"`
	CourseID    *int64         `json:"course_id,omitempty" db:"course_id"`
	IsPublic    bool           `json:"is_public" db:"is_public"`
	Status      TemplateStatus `json:"status" db:"status"`
	CreatedByID *int64         `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// Tombstoned reports whether the template was soft-deleted.
func (t *AchievementTemplate) Tombstoned() bool {
	return t.Status == TemplateTombstoned
}

// StudentAchievement is a grant of one template to one student. (StudentID, TemplateID) is unique.
type StudentAchievement struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"student_id" db:"student_id"`
	TemplateID int64     `json:"template_id" db:"achievement_template_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	CourseID       *int64
	IncludeDeleted bool
	// VisibleToCourses restricts results to public templates or templates scoped to one of these courses.
	VisibleToCourses []int64
	RestrictVisible  bool
}
