package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

func (s *Store) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrCourseNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCourses(_ context.Context, ids []int64) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := idSet(ids)
	out := []models.Course{}
	for _, c := range s.courses {
		if inSet(set, c.ID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CourseIDsForTeacher(_ context.Context, teacherID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[int64]struct{})
	for link := range s.courseTeachers {
		if link.b == teacherID {
			set[link.a] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (s *Store) ListCourseTeachers(_ context.Context, courseIDs []int64) ([]models.CourseTeacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := idSet(courseIDs)
	out := []models.CourseTeacher{}
	for link := range s.courseTeachers {
		if inSet(set, link.a) {
			out = append(out, models.CourseTeacher{CourseID: link.a, TeacherID: link.b})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	return out, nil
}

func (s *Store) GetTeacherByID(_ context.Context, id int64) (*models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teachers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.ErrTeacherNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListTeachers(_ context.Context, ids []int64) ([]models.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := idSet(ids)
	out := []models.Teacher{}
	for _, t := range s.teachers {
		if inSet(set, t.ID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSchedule(_ context.Context, courseIDs []int64, groupName string) ([]models.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := idSet(courseIDs)
	out := []models.ScheduleEntry{}
	for _, e := range s.schedule {
		if !inSet(set, e.CourseID) {
			continue
		}
		if groupName != "" && e.GroupName != groupName {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddScheduleEntry appends a timetable slot.
func (s *Store) AddScheduleEntry(e models.ScheduleEntry) models.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.schedule = append(s.schedule, e)
	return e
}

func (s *Store) CreateCourse(_ context.Context, c *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Code != "" {
		for _, other := range s.courses {
			if other.Code == c.Code {
				return apperrors.NewConflictError(fmt.Sprintf("course code %q already exists", c.Code))
			}
		}
	}
	c.ID = s.id()
	c.CreatedAt = s.now()
	cp := *c
	s.courses[c.ID] = &cp
	return nil
}

func (s *Store) CreateTeacher(_ context.Context, t *models.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Email != "" {
		for _, other := range s.teachers {
			if other.Email == t.Email {
				return apperrors.ErrEmailAlreadyExists
			}
		}
	}
	t.ID = s.id()
	t.CreatedAt = s.now()
	cp := *t
	s.teachers[t.ID] = &cp
	return nil
}

func (s *Store) LinkCourseTeacher(_ context.Context, link models.CourseTeacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[link.CourseID]; !ok {
		return apperrors.NewResourceNotFoundError("course or teacher not found")
	}
	if _, ok := s.teachers[link.TeacherID]; !ok {
		return apperrors.NewResourceNotFoundError("course or teacher not found")
	}
	s.courseTeachers[pair{link.CourseID, link.TeacherID}] = struct{}{}
	return nil
}
