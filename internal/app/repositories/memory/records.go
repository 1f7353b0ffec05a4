package memory

import (
	"context"
	"sort"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

type summaryMatcher struct {
	students map[int64]struct{}
	courses  map[int64]struct{}
	rng      models.DateRange
}

func newSummaryMatcher(f models.SummaryFilter) summaryMatcher {
	return summaryMatcher{students: idSet(f.StudentIDs), courses: idSet(f.CourseIDs), rng: f.Range}
}

func (m summaryMatcher) match(studentID int64, courseID *int64, date time.Time) bool {
	if !inSet(m.students, studentID) {
		return false
	}
	if m.courses != nil && (courseID == nil || !inSet(m.courses, *courseID)) {
		return false
	}
	return m.rng.Contains(date)
}

func (s *Store) GradeSummaries(_ context.Context, f models.SummaryFilter) ([]models.GradeSummary, error) {
	if f.MatchesNothing() {
		return []models.GradeSummary{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := newSummaryMatcher(f)
	acc := make(map[int64]*models.GradeSummary)
	for _, g := range s.grades {
		courseID := g.CourseID
		if !m.match(g.StudentID, &courseID, g.Date) {
			continue
		}
		sum, ok := acc[g.StudentID]
		if !ok {
			sum = &models.GradeSummary{StudentID: g.StudentID}
			acc[g.StudentID] = sum
		}
		sum.Sum += g.Value
		sum.Count++
	}
	out := make([]models.GradeSummary, 0, len(acc))
	for _, sum := range acc {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *Store) ListGrades(_ context.Context, f models.SummaryFilter) ([]models.Grade, error) {
	if f.MatchesNothing() {
		return []models.Grade{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := newSummaryMatcher(f)
	out := []models.Grade{}
	for _, g := range s.grades {
		courseID := g.CourseID
		if m.match(g.StudentID, &courseID, g.Date) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateGrade(_ context.Context, g *models.Grade) error {
	if g.Value < models.MinGradeValue || g.Value > models.MaxGradeValue {
		return apperrors.NewValidationError("grade value must be between 2 and 5")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[g.StudentID]; !ok {
		return apperrors.NewResourceNotFoundError("student or course not found")
	}
	if _, ok := s.courses[g.CourseID]; !ok {
		return apperrors.NewResourceNotFoundError("student or course not found")
	}
	g.ID = s.id()
	g.CreatedAt = s.now()
	s.grades = append(s.grades, *g)
	return nil
}

func (s *Store) AttendanceSummaries(_ context.Context, f models.SummaryFilter) ([]models.AttendanceSummary, error) {
	if f.MatchesNothing() {
		return []models.AttendanceSummary{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := newSummaryMatcher(f)
	acc := make(map[int64]*models.AttendanceSummary)
	for _, a := range s.attendance {
		if !m.match(a.StudentID, a.CourseID, a.Date) {
			continue
		}
		sum, ok := acc[a.StudentID]
		if !ok {
			sum = &models.AttendanceSummary{StudentID: a.StudentID}
			acc[a.StudentID] = sum
		}
		sum.Total++
		if a.Present {
			sum.Present++
		}
	}
	out := make([]models.AttendanceSummary, 0, len(acc))
	for _, sum := range acc {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *Store) ListAttendance(_ context.Context, f models.SummaryFilter) ([]models.Attendance, error) {
	if f.MatchesNothing() {
		return []models.Attendance{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := newSummaryMatcher(f)
	out := []models.Attendance{}
	for _, a := range s.attendance {
		if m.match(a.StudentID, a.CourseID, a.Date) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) PresentStudentIDs(_ context.Context, day time.Time, studentIDs []int64) ([]int64, error) {
	if studentIDs != nil && len(studentIDs) == 0 {
		return []int64{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	only := models.DateRange{From: &day, To: &day}
	set := idSet(studentIDs)
	present := make(map[int64]struct{})
	for _, a := range s.attendance {
		if a.Present && inSet(set, a.StudentID) && only.Contains(a.Date) {
			present[a.StudentID] = struct{}{}
		}
	}
	return sortedKeys(present), nil
}

func (s *Store) CreateAttendance(_ context.Context, a *models.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[a.StudentID]; !ok {
		return apperrors.NewResourceNotFoundError("student or course not found")
	}
	if a.CourseID != nil {
		if _, ok := s.courses[*a.CourseID]; !ok {
			return apperrors.NewResourceNotFoundError("student or course not found")
		}
	}
	a.ID = s.id()
	s.attendance = append(s.attendance, *a)
	return nil
}
