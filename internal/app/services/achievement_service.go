package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// ErrHardDeleteNotConfirmed is returned when a permanent delete lacks confirmation
var ErrHardDeleteNotConfirmed = errors.New("permanent deletion requires confirm=true")

// AchievementService defines the interface for achievement templates and grants
type AchievementService interface {
	CreateAchievement(ctx context.Context, actor auth.Actor, req *dto.CreateAchievementRequest) (*dto.AchievementResponse, error)
	ListAchievements(ctx context.Context, actor auth.Actor, courseID *int64, includeDeleted bool) ([]dto.AchievementResponse, error)
	AssignAchievement(ctx context.Context, actor auth.Actor, req *dto.AssignAchievementRequest) (*dto.AssignAchievementResponse, error)
	DeleteAchievement(ctx context.Context, actor auth.Actor, id int64, permanent, confirm bool) (*dto.DeleteAchievementResponse, error)
	RestoreAchievement(ctx context.Context, actor auth.Actor, id int64) (*dto.AchievementResponse, error)
	RevokeAchievement(ctx context.Context, actor auth.Actor, templateID, studentID int64) error
	GetStudentAchievements(ctx context.Context, actor auth.Actor, studentID int64) (*dto.StudentAchievementsResponse, error)
	GetAchievementStudents(ctx context.Context, templateID int64) ([]dto.AchievementHolder, error)
}

type achievementServiceImpl struct {
	stores Stores
	authz  *auth.AuthorizationService
	opts   AnalyticsOptions
	audit  auditor
	clock  clock
	logger zerolog.Logger
}

// NewAchievementService creates a new achievement service
func NewAchievementService(stores Stores, authz *auth.AuthorizationService, opts AnalyticsOptions, logger zerolog.Logger) AchievementService {
	return &achievementServiceImpl{
		stores: stores,
		authz:  authz,
		opts:   opts,
		audit:  auditor{logs: stores.Logs, logger: logger},
		logger: logger,
	}
}

// CreateAchievement creates a template scoped to a course or marked public
func (s *achievementServiceImpl) CreateAchievement(ctx context.Context, actor auth.Actor, req *dto.CreateAchievementRequest) (*dto.AchievementResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if req.Points < 0 {
		return nil, apperrors.NewValidationError("points must be non-negative")
	}
	if req.IsPublic && req.CourseID != nil {
		return nil, apperrors.NewValidationError("an achievement cannot be both public and scoped to a course")
	}
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return nil, apperrors.NewForbiddenError("only teachers and admins may create achievements")
	}
	if req.CourseID != nil {
		if _, err := s.stores.Courses.GetCourseByID(ctx, *req.CourseID); err != nil {
			return nil, err
		}
		if err := s.authz.ValidateCourseAccess(ctx, actor, *req.CourseID); err != nil {
			return nil, err
		}
	} else if actor.IsTeacher() && !req.IsPublic {
		return nil, apperrors.NewValidationError("teachers must scope an achievement to one of their courses or make it public")
	}

	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		icon = models.DefaultAchievementIcon
	}
	tpl := &models.AchievementTemplate{
		Name:        name,
		Description: req.Description,
		Icon:        icon,
		Points:      req.Points,
		CourseID:    req.CourseID,
		IsPublic:    req.IsPublic,
		Status:      models.TemplateActive,
		CreatedByID: actor.TeacherID,
	}
	if err := s.stores.Achievements.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, models.ActionCreate, "achievement_templates", tpl.ID, nil, tpl)
	s.logger.Info().Int64("achievementID", tpl.ID).Int64("userID", actor.UserID).Msg("Achievement created")

	resp := dto.NewAchievementResponse(tpl)
	return &resp, nil
}

// ListAchievements returns the catalog visible to the actor
func (s *achievementServiceImpl) ListAchievements(ctx context.Context, actor auth.Actor, courseID *int64, includeDeleted bool) ([]dto.AchievementResponse, error) {
	if includeDeleted && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins may list deleted achievements")
	}
	filter := models.TemplateFilter{CourseID: courseID, IncludeDeleted: includeDeleted}

	switch {
	case actor.IsTeacher():
		courses, err := s.authz.TeacherCourses(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.RestrictVisible = true
		filter.VisibleToCourses = courses
	case actor.IsStudent():
		courses, err := s.studentCourses(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.RestrictVisible = true
		filter.VisibleToCourses = courses
	}

	templates, err := s.stores.Achievements.ListTemplates(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AchievementResponse, len(templates))
	for i := range templates {
		out[i] = dto.NewAchievementResponse(&templates[i])
	}
	return out, nil
}

func (s *achievementServiceImpl) studentCourses(ctx context.Context, actor auth.Actor) ([]int64, error) {
	if actor.StudentID == nil {
		return nil, apperrors.NewForbiddenError(auth.ErrNoLinkedStudent.Error())
	}
	grades, err := s.stores.Grades.ListGrades(ctx, models.SummaryFilter{StudentIDs: []int64{*actor.StudentID}})
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	var ids []int64
	for _, g := range grades {
		if _, ok := seen[g.CourseID]; !ok {
			seen[g.CourseID] = struct{}{}
			ids = append(ids, g.CourseID)
		}
	}
	return ids, nil
}

// resolveAudience turns the selector into student ids plus ids that were requested but do not exist.
// Teachers are limited to their roster: explicit lists must lie entirely inside it, other selectors are narrowed to it.
func (s *achievementServiceImpl) resolveAudience(ctx context.Context, actor auth.Actor, aud Audience) ([]int64, []int64, error) {
	var ids, missing []int64

	switch aud.Kind {
	case AudienceStudents:
		found, err := s.stores.Students.GetStudentsByIDs(ctx, aud.StudentIDs)
		if err != nil {
			return nil, nil, err
		}
		exists := make(map[int64]struct{}, len(found))
		for _, st := range found {
			exists[st.ID] = struct{}{}
		}
		for _, id := range aud.StudentIDs {
			if _, ok := exists[id]; ok {
				ids = append(ids, id)
			} else {
				missing = append(missing, id)
			}
		}
	case AudienceGroup:
		if _, err := s.stores.Groups.GetGroupByName(ctx, aud.Group); err != nil {
			return nil, nil, err
		}
		students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{GroupNames: []string{aud.Group}})
		if err != nil {
			return nil, nil, err
		}
		ids = studentIDs(students)
	case AudienceDepartment:
		dept := analytics.NormalizeDepartment(aud.Department, s.opts.KnownDepartments)
		if dept == "" {
			return nil, nil, apperrors.NewValidationError(fmt.Sprintf("unknown department %q", aud.Department))
		}
		students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{GroupPrefix: dept})
		if err != nil {
			return nil, nil, err
		}
		ids = studentIDs(students)
	case AudienceCourse:
		if _, err := s.stores.Courses.GetCourseByID(ctx, aud.CourseID); err != nil {
			return nil, nil, err
		}
		if err := s.authz.ValidateCourseAccess(ctx, actor, aud.CourseID); err != nil {
			return nil, nil, err
		}
		roster, err := s.stores.Students.StudentIDsForCourses(ctx, []int64{aud.CourseID})
		if err != nil {
			return nil, nil, err
		}
		ids = roster
	case AudienceAll:
		students, _, err := s.stores.Students.ListStudents(ctx, models.StudentFilter{})
		if err != nil {
			return nil, nil, err
		}
		ids = studentIDs(students)
	default:
		return nil, nil, apperrors.NewValidationError("unknown audience")
	}

	if !actor.IsTeacher() {
		return ids, missing, nil
	}
	roster, err := s.authz.TeacherRoster(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	narrowed := intersect(ids, roster)
	switch {
	case aud.Kind == AudienceStudents && len(narrowed) != len(ids):
		return nil, nil, apperrors.NewForbiddenError("some students are not enrolled in your courses")
	case aud.Kind != AudienceStudents && aud.Kind != AudienceCourse && len(narrowed) == 0 && len(ids) > 0:
		return nil, nil, apperrors.NewForbiddenError(fmt.Sprintf("no students of this %s are enrolled in your courses", aud.Kind))
	}
	return narrowed, missing, nil
}

// AssignAchievement grants a template to every student of the audience.
// Each grant is independent: already held achievements are reported, not duplicated.
func (s *achievementServiceImpl) AssignAchievement(ctx context.Context, actor auth.Actor, req *dto.AssignAchievementRequest) (*dto.AssignAchievementResponse, error) {
	aud, err := AudienceFromRequest(req)
	if err != nil {
		return nil, err
	}
	tpl, err := s.stores.Achievements.GetTemplateByID(ctx, req.AchievementID)
	if err != nil {
		return nil, err
	}
	if tpl.Tombstoned() {
		return nil, apperrors.NewValidationError("achievement is deleted and cannot be granted")
	}
	if err := s.authz.ValidateTemplateGrant(ctx, actor, tpl); err != nil {
		return nil, err
	}

	ids, missing, err := s.resolveAudience(ctx, actor, aud)
	if err != nil {
		return nil, err
	}

	resp := &dto.AssignAchievementResponse{Results: make([]dto.AssignResult, 0, len(ids)+len(missing))}
	now := s.clock.now()
	for _, id := range ids {
		result := dto.AssignResult{StudentID: id}
		created, err := s.stores.Achievements.GrantAchievement(ctx, id, tpl.ID, now)
		switch {
		case err == nil && created:
			result.Status = dto.AssignGranted
			resp.GrantedCount++
			s.audit.record(ctx, actor, models.ActionGrant, "student_achievements", id, nil, map[string]int64{"student_id": id, "achievement_id": tpl.ID})
		case err == nil:
			result.Status = dto.AssignAlreadyGranted
			resp.AlreadyGranted++
		case apperrors.IsNotFound(err):
			result.Status = dto.AssignNotFound
			result.Error = err.Error()
			resp.FailedCount++
		default:
			s.logger.Error().Err(err).Int64("studentID", id).Int64("achievementID", tpl.ID).Msg("Grant failed")
			result.Status = dto.AssignFailed
			result.Error = "grant failed"
			resp.FailedCount++
		}
		resp.Results = append(resp.Results, result)
	}
	for _, id := range missing {
		resp.Results = append(resp.Results, dto.AssignResult{
			StudentID: id,
			Status:    dto.AssignNotFound,
			Error:     apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, id).Error(),
		})
		resp.FailedCount++
	}

	resp.Message = fmt.Sprintf("Achievement %q granted to %d students", tpl.Name, resp.GrantedCount)
	s.logger.Info().
		Int64("achievementID", tpl.ID).
		Str("audience", aud.Kind.String()).
		Int("granted", resp.GrantedCount).
		Int("alreadyGranted", resp.AlreadyGranted).
		Int("failed", resp.FailedCount).
		Msg("Achievement assigned")
	return resp, nil
}

// DeleteAchievement tombstones a template, or removes it with all grants when permanent and confirmed
func (s *achievementServiceImpl) DeleteAchievement(ctx context.Context, actor auth.Actor, id int64, permanent, confirm bool) (*dto.DeleteAchievementResponse, error) {
	tpl, err := s.stores.Achievements.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateTemplateOwnership(actor, tpl); err != nil {
		return nil, err
	}

	if permanent {
		if !confirm {
			return nil, apperrors.NewValidationError(ErrHardDeleteNotConfirmed.Error())
		}
		removed, err := s.stores.Achievements.DeleteTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		s.audit.record(ctx, actor, models.ActionDelete, "achievement_templates", id, tpl, map[string]interface{}{"permanent": true, "removed_grants": removed})
		s.logger.Warn().Int64("achievementID", id).Int64("removedGrants", removed).Msg("Achievement permanently deleted")
		return &dto.DeleteAchievementResponse{
			Message:       "Achievement permanently deleted",
			Permanent:     true,
			RemovedGrants: removed,
		}, nil
	}

	if tpl.Tombstoned() {
		return &dto.DeleteAchievementResponse{Message: "Achievement already deleted"}, nil
	}
	if err := s.stores.Achievements.SetTemplateStatus(ctx, id, models.TemplateTombstoned); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, models.ActionDelete, "achievement_templates", id,
		map[string]models.TemplateStatus{"status": tpl.Status},
		map[string]models.TemplateStatus{"status": models.TemplateTombstoned})
	return &dto.DeleteAchievementResponse{Message: "Achievement deleted"}, nil
}

// RestoreAchievement clears the tombstone of a template
func (s *achievementServiceImpl) RestoreAchievement(ctx context.Context, actor auth.Actor, id int64) (*dto.AchievementResponse, error) {
	tpl, err := s.stores.Achievements.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateTemplateOwnership(actor, tpl); err != nil {
		return nil, err
	}
	if tpl.Tombstoned() {
		if err := s.stores.Achievements.SetTemplateStatus(ctx, id, models.TemplateActive); err != nil {
			return nil, err
		}
		s.audit.record(ctx, actor, models.ActionRestore, "achievement_templates", id,
			map[string]models.TemplateStatus{"status": tpl.Status},
			map[string]models.TemplateStatus{"status": models.TemplateActive})
		tpl.Status = models.TemplateActive
	}
	resp := dto.NewAchievementResponse(tpl)
	return &resp, nil
}

// RevokeAchievement takes a single grant back
func (s *achievementServiceImpl) RevokeAchievement(ctx context.Context, actor auth.Actor, templateID, studentID int64) error {
	tpl, err := s.stores.Achievements.GetTemplateByID(ctx, templateID)
	if err != nil {
		return err
	}
	if _, err := s.stores.Students.GetStudentByID(ctx, studentID); err != nil {
		return err
	}
	if err := s.authz.ValidateTemplateGrant(ctx, actor, tpl); err != nil {
		return err
	}
	if actor.IsTeacher() {
		if err := s.authz.ValidateStudentAccess(ctx, actor, studentID); err != nil {
			return err
		}
	}
	if err := s.stores.Achievements.RevokeAchievement(ctx, studentID, templateID); err != nil {
		return err
	}
	s.audit.record(ctx, actor, models.ActionRevoke, "student_achievements", studentID,
		map[string]int64{"student_id": studentID, "achievement_id": templateID}, nil)
	return nil
}

// GetStudentAchievements lists a student's active achievements and their point total
func (s *achievementServiceImpl) GetStudentAchievements(ctx context.Context, actor auth.Actor, studentID int64) (*dto.StudentAchievementsResponse, error) {
	if _, err := s.stores.Students.GetStudentByID(ctx, studentID); err != nil {
		return nil, err
	}
	if err := s.authz.ValidateStudentAccess(ctx, actor, studentID); err != nil {
		return nil, err
	}
	grants, err := s.stores.Achievements.ListStudentGrants(ctx, studentID)
	if err != nil {
		return nil, err
	}
	templates, err := s.stores.Achievements.ListTemplates(ctx, models.TemplateFilter{})
	if err != nil {
		return nil, err
	}
	active := make(map[int64]*models.AchievementTemplate, len(templates))
	for i := range templates {
		active[templates[i].ID] = &templates[i]
	}

	resp := &dto.StudentAchievementsResponse{StudentID: studentID, Achievements: []dto.UnlockedAchievement{}}
	for _, g := range grants {
		tpl, ok := active[g.TemplateID]
		if !ok {
			continue
		}
		resp.Achievements = append(resp.Achievements, dto.UnlockedAchievement{
			AchievementResponse: dto.NewAchievementResponse(tpl),
			UnlockedAt:          g.UnlockedAt,
		})
		resp.TotalPoints += tpl.Points
	}
	return resp, nil
}

// GetAchievementStudents lists every holder of a template
func (s *achievementServiceImpl) GetAchievementStudents(ctx context.Context, templateID int64) ([]dto.AchievementHolder, error) {
	if _, err := s.stores.Achievements.GetTemplateByID(ctx, templateID); err != nil {
		return nil, err
	}
	grants, err := s.stores.Achievements.ListTemplateGrants(ctx, templateID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(grants))
	for i, g := range grants {
		ids[i] = g.StudentID
	}
	students, err := s.stores.Students.GetStudentsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	out := make([]dto.AchievementHolder, 0, len(grants))
	for _, g := range grants {
		st := byID[g.StudentID]
		out = append(out, dto.AchievementHolder{
			StudentID:  g.StudentID,
			Name:       st.Name,
			Group:      st.GroupName,
			UnlockedAt: g.UnlockedAt,
		})
	}
	return out, nil
}
