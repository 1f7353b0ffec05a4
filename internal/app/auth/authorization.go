package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/logger"
)

// Authorization errors that callers may want to tell apart
var (
	ErrNotTeacher       = errors.New("only teachers can perform this action")
	ErrNoLinkedTeacher  = errors.New("account is not linked to a teacher profile")
	ErrNoLinkedStudent  = errors.New("account is not linked to a student profile")
	ErrOutsideOwnCourse = errors.New("teachers may only act on their own courses")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID    int64
	Role      models.Role
	StudentID *int64
	TeacherID *int64
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsTeacher reports whether the actor has the teacher role.
func (a Actor) IsTeacher() bool { return a.Role == models.RoleTeacher }

// IsStudent reports whether the actor has the student role.
func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

// CourseScope resolves the courses a teacher is linked to.
type CourseScope interface {
	CourseIDsForTeacher(ctx context.Context, teacherID int64) ([]int64, error)
}

// RosterSource resolves the students enrolled in courses.
type RosterSource interface {
	StudentIDsForCourses(ctx context.Context, courseIDs []int64) ([]int64, error)
}

// AuthorizationService answers role and course-scope questions
type AuthorizationService struct {
	courses CourseScope
	roster  RosterSource
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courses CourseScope, roster RosterSource) *AuthorizationService {
	return &AuthorizationService{courses: courses, roster: roster}
}

func forbidden(err error) error {
	return apperrors.NewForbiddenError(err.Error())
}

// TeacherCourses returns the course ids of a teacher actor
func (s *AuthorizationService) TeacherCourses(ctx context.Context, actor Actor) ([]int64, error) {
	if !actor.IsTeacher() {
		return nil, forbidden(ErrNotTeacher)
	}
	if actor.TeacherID == nil {
		return nil, forbidden(ErrNoLinkedTeacher)
	}
	ids, err := s.courses.CourseIDsForTeacher(ctx, *actor.TeacherID)
	if err != nil {
		logger.Error().Err(err).Int64("teacherID", *actor.TeacherID).Msg("Error loading teacher courses")
		return nil, fmt.Errorf("error loading teacher courses: %w", err)
	}
	return ids, nil
}

// TeacherRoster returns students with a grade or attendance record in the teacher's courses
func (s *AuthorizationService) TeacherRoster(ctx context.Context, actor Actor) ([]int64, error) {
	courses, err := s.TeacherCourses(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.roster.StudentIDsForCourses(ctx, courses)
}

// VisibleStudents returns the student ids the actor may read; nil means every student
func (s *AuthorizationService) VisibleStudents(ctx context.Context, actor Actor) ([]int64, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return nil, nil
	case models.RoleTeacher:
		return s.TeacherRoster(ctx, actor)
	case models.RoleStudent:
		if actor.StudentID == nil {
			return nil, forbidden(ErrNoLinkedStudent)
		}
		return []int64{*actor.StudentID}, nil
	}
	return nil, apperrors.ErrPermissionDenied
}

// CanAccessStudent checks if the actor may read a student's data
func (s *AuthorizationService) CanAccessStudent(ctx context.Context, actor Actor, studentID int64) (bool, error) {
	visible, err := s.VisibleStudents(ctx, actor)
	if err != nil {
		return false, err
	}
	if visible == nil {
		return true, nil
	}
	for _, id := range visible {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

// ValidateStudentAccess returns a permission error unless the actor may read the student
func (s *AuthorizationService) ValidateStudentAccess(ctx context.Context, actor Actor, studentID int64) error {
	ok, err := s.CanAccessStudent(ctx, actor, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("you don't have access to this student")
	}
	return nil
}

// VisibleCourses returns the course ids the actor may read; nil means every course
func (s *AuthorizationService) VisibleCourses(ctx context.Context, actor Actor) ([]int64, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return nil, nil
	case models.RoleTeacher:
		return s.TeacherCourses(ctx, actor)
	}
	return nil, apperrors.NewForbiddenError("students cannot browse courses")
}

// ValidateCourseAccess checks that an admin or a teacher of the course is acting
func (s *AuthorizationService) ValidateCourseAccess(ctx context.Context, actor Actor, courseID int64) error {
	courses, err := s.VisibleCourses(ctx, actor)
	if err != nil {
		return err
	}
	if courses == nil {
		return nil
	}
	for _, id := range courses {
		if id == courseID {
			return nil
		}
	}
	return forbidden(ErrOutsideOwnCourse)
}

// ValidateTemplateGrant checks that the actor may grant or revoke the template.
// Teachers may use public templates and those scoped to their own courses.
func (s *AuthorizationService) ValidateTemplateGrant(ctx context.Context, actor Actor, tpl *models.AchievementTemplate) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsTeacher() {
		return forbidden(ErrNotTeacher)
	}
	if tpl.IsPublic {
		return nil
	}
	if tpl.CourseID == nil {
		return apperrors.NewForbiddenError("only admins may grant unscoped private achievements")
	}
	return s.ValidateCourseAccess(ctx, actor, *tpl.CourseID)
}

// ValidateTemplateOwnership checks that the actor may delete or restore the template
func (s *AuthorizationService) ValidateTemplateOwnership(actor Actor, tpl *models.AchievementTemplate) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsTeacher() && actor.TeacherID != nil && tpl.CreatedByID != nil && *tpl.CreatedByID == *actor.TeacherID {
		return nil
	}
	return apperrors.NewForbiddenError("only the creator or an admin may change this achievement")
}
