package services

import (
	"strings"

	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

// AudienceKind selects how an assignment audience is resolved.
type AudienceKind int

const (
	AudienceStudents AudienceKind = iota + 1
	AudienceGroup
	AudienceDepartment
	AudienceCourse
	AudienceAll
)

func (k AudienceKind) String() string {
	switch k {
	case AudienceStudents:
		return "students"
	case AudienceGroup:
		return "group"
	case AudienceDepartment:
		return "department"
	case AudienceCourse:
		return "course"
	case AudienceAll:
		return "all"
	}
	return "unknown"
}

// Audience is exactly one target selector; only the field matching Kind is set.
type Audience struct {
	Kind       AudienceKind
	StudentIDs []int64
	Group      string
	Department string
	CourseID   int64
}

// AudienceFromRequest builds the audience and rejects requests that select none or several.
func AudienceFromRequest(req *dto.AssignAchievementRequest) (Audience, error) {
	var selected []Audience
	if len(req.StudentIDs) > 0 {
		selected = append(selected, Audience{Kind: AudienceStudents, StudentIDs: dedupe(req.StudentIDs)})
	}
	if g := strings.TrimSpace(req.Group); g != "" {
		selected = append(selected, Audience{Kind: AudienceGroup, Group: g})
	}
	if d := strings.TrimSpace(req.Department); d != "" {
		selected = append(selected, Audience{Kind: AudienceDepartment, Department: d})
	}
	if req.CourseID != nil {
		selected = append(selected, Audience{Kind: AudienceCourse, CourseID: *req.CourseID})
	}
	if req.AllStudents {
		selected = append(selected, Audience{Kind: AudienceAll})
	}

	switch len(selected) {
	case 0:
		return Audience{}, apperrors.NewValidationError("one of student_ids, group, department, course_id or all_students is required")
	case 1:
		for _, id := range selected[0].StudentIDs {
			if id <= 0 {
				return Audience{}, apperrors.NewValidationError("student_ids must be positive")
			}
		}
		if selected[0].Kind == AudienceCourse && selected[0].CourseID <= 0 {
			return Audience{}, apperrors.NewValidationError("course_id must be positive")
		}
		return selected[0], nil
	}
	return Audience{}, apperrors.NewValidationError("only one of student_ids, group, department, course_id or all_students may be set")
}
