package memory

import (
	"context"
	"sort"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

func (s *Store) CreateTemplate(_ context.Context, t *models.AchievementTemplate) error {
	if t.IsPublic && t.CourseID != nil {
		return apperrors.NewValidationError("a template is either public or scoped to a course")
	}
	if t.Points < 0 {
		return apperrors.NewValidationError("points must be non-negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CourseID != nil {
		if _, ok := s.courses[*t.CourseID]; !ok {
			return apperrors.NewResourceNotFoundError("course or creating teacher not found")
		}
	}
	if t.Status == "" {
		t.Status = models.TemplateActive
	}
	t.ID = s.id()
	t.CreatedAt = s.now()
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *Store) GetTemplateByID(_ context.Context, id int64) (*models.AchievementTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListTemplates(_ context.Context, f models.TemplateFilter) ([]models.AchievementTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visible := idSet(f.VisibleToCourses)
	out := []models.AchievementTemplate{}
	for _, t := range s.templates {
		if !f.IncludeDeleted && t.Tombstoned() {
			continue
		}
		if f.CourseID != nil && (t.CourseID == nil || *t.CourseID != *f.CourseID) {
			continue
		}
		if f.RestrictVisible && !t.IsPublic {
			if t.CourseID == nil {
				continue
			}
			if _, ok := visible[*t.CourseID]; !ok {
				continue
			}
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetTemplateStatus(_ context.Context, id int64, status models.TemplateStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
	}
	t.Status = status
	return nil
}

func (s *Store) DeleteTemplate(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return 0, apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
	}
	var removed int64
	for key := range s.grants {
		if key.b == id {
			delete(s.grants, key)
			removed++
		}
	}
	delete(s.templates, id)
	return removed, nil
}

func (s *Store) GrantAchievement(_ context.Context, studentID, templateID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return false, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, studentID)
	}
	if _, ok := s.templates[templateID]; !ok {
		return false, apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, templateID)
	}
	key := pair{studentID, templateID}
	if _, exists := s.grants[key]; exists {
		return false, nil
	}
	s.grants[key] = &models.StudentAchievement{ID: s.id(), StudentID: studentID, TemplateID: templateID, UnlockedAt: at}
	return true, nil
}

func (s *Store) RevokeAchievement(_ context.Context, studentID, templateID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{studentID, templateID}
	if _, ok := s.grants[key]; !ok {
		return apperrors.NewNotFoundError(apperrors.ErrGrantNotFound, templateID)
	}
	delete(s.grants, key)
	return nil
}

func (s *Store) listGrants(keep func(pair) bool) []models.StudentAchievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.StudentAchievement{}
	for key, g := range s.grants {
		if keep(key) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.After(out[j].UnlockedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListStudentGrants(_ context.Context, studentID int64) ([]models.StudentAchievement, error) {
	return s.listGrants(func(k pair) bool { return k.a == studentID }), nil
}

func (s *Store) ListTemplateGrants(_ context.Context, templateID int64) ([]models.StudentAchievement, error) {
	return s.listGrants(func(k pair) bool { return k.b == templateID }), nil
}

func (s *Store) CountGrants(_ context.Context, studentIDs []int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int64]int, len(studentIDs))
	set := idSet(studentIDs)
	if len(set) == 0 {
		return counts, nil
	}
	for key := range s.grants {
		if _, ok := set[key.a]; ok {
			counts[key.a]++
		}
	}
	return counts, nil
}
