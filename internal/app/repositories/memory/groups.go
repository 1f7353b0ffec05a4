package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

func (s *Store) GetGroupByName(_ context.Context, name string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Name == name {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError(apperrors.ErrGroupNotFound, name)
}

func (s *Store) ListGroups(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateGroupRollup(_ context.Context, groupID int64, rollup models.GroupRollup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return apperrors.NewNotFoundError(apperrors.ErrGroupNotFound, groupID)
	}
	g.TotalStudents = rollup.TotalStudents
	g.AverageGPA = rollup.AverageGPA
	g.AverageAttendanceRate = rollup.AverageAttendanceRate
	g.UpdatedAt = s.now()
	return nil
}

func (s *Store) CreateGroup(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.groups {
		if other.Name == g.Name {
			return apperrors.NewConflictError(fmt.Sprintf("group %q already exists", g.Name))
		}
	}
	g.ID = s.id()
	g.UpdatedAt = s.now()
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}
