package memory

import (
	"context"
	"sort"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

func (s *Store) GetStudentByID(_ context.Context, id int64) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, id)
	}
	cp := *st
	return &cp, nil
}

func (s *Store) GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	students, _, err := s.ListStudents(ctx, models.StudentFilter{IDs: ids})
	return students, err
}

func (s *Store) ListStudents(_ context.Context, f models.StudentFilter) ([]models.Student, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := idSet(f.IDs)
	var names map[string]struct{}
	if f.GroupNames != nil {
		names = make(map[string]struct{}, len(f.GroupNames))
		for _, n := range f.GroupNames {
			names[n] = struct{}{}
		}
	}

	matched := []models.Student{}
	for _, st := range s.students {
		if !inSet(ids, st.ID) {
			continue
		}
		if names != nil {
			if _, ok := names[st.GroupName]; !ok {
				continue
			}
		}
		if f.GroupPrefix != "" && !hasGroupPrefix(st.GroupName, f.GroupPrefix) {
			continue
		}
		matched = append(matched, *st)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, f.Offset, f.Limit), int64(len(matched)), nil
}

func (s *Store) StudentIDsForCourses(_ context.Context, courseIDs []int64) ([]int64, error) {
	if len(courseIDs) == 0 {
		return []int64{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := idSet(courseIDs)
	seen := make(map[int64]struct{})
	for _, g := range s.grades {
		if inSet(courses, g.CourseID) {
			seen[g.StudentID] = struct{}{}
		}
	}
	for _, a := range s.attendance {
		if a.CourseID != nil && inSet(courses, *a.CourseID) {
			seen[a.StudentID] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) SetHeadman(_ context.Context, studentID int64) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, studentID)
	}
	if st.GroupID == nil {
		return nil, apperrors.NewValidationError(apperrors.ErrStudentHasNoGroup.Error())
	}
	for _, other := range s.students {
		if other.GroupID != nil && *other.GroupID == *st.GroupID && other.ID != studentID {
			other.IsHeadman = false
		}
	}
	st.IsHeadman = true
	if g, ok := s.groups[*st.GroupID]; ok {
		id := studentID
		g.HeadmanID = &id
		g.UpdatedAt = s.now()
	}
	cp := *st
	return &cp, nil
}

func (s *Store) ClearHeadman(_ context.Context, studentID int64) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, studentID)
	}
	st.IsHeadman = false
	for _, g := range s.groups {
		if g.HeadmanID != nil && *g.HeadmanID == studentID {
			g.HeadmanID = nil
			g.UpdatedAt = s.now()
		}
	}
	cp := *st
	return &cp, nil
}

func (s *Store) CreateStudent(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Email != "" {
		for _, other := range s.students {
			if other.Email == st.Email {
				return apperrors.ErrEmailAlreadyExists
			}
		}
	}
	st.ID = s.id()
	st.CreatedAt = s.now()
	cp := *st
	s.students[st.ID] = &cp
	return nil
}
