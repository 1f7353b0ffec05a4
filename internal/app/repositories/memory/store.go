// Package memory is an in-process store with the same contracts as the
// PostgreSQL repositories. It backs tests and the "memory" database driver.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

type pair struct {
	a, b int64
}

// Store keeps every table in maps guarded by a single lock, so each method is
// one atomic step like a database transaction.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	students       map[int64]*models.Student
	groups         map[int64]*models.Group
	courses        map[int64]*models.Course
	teachers       map[int64]*models.Teacher
	courseTeachers map[pair]struct{}
	schedule       []models.ScheduleEntry
	grades         []models.Grade
	attendance     []models.Attendance
	templates      map[int64]*models.AchievementTemplate
	grants         map[pair]*models.StudentAchievement
	users          map[int64]*models.User
	loginLogs      []models.LoginLog
	activityLogs   []models.ActivityLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:            time.Now,
		students:       make(map[int64]*models.Student),
		groups:         make(map[int64]*models.Group),
		courses:        make(map[int64]*models.Course),
		teachers:       make(map[int64]*models.Teacher),
		courseTeachers: make(map[pair]struct{}),
		templates:      make(map[int64]*models.AchievementTemplate),
		grants:         make(map[pair]*models.StudentAchievement),
		users:          make(map[int64]*models.User),
	}
}

// SetClock replaces the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// id must be called with the write lock held.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func idSet(ids []int64) map[int64]struct{} {
	if ids == nil {
		return nil
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// inSet treats a nil set as "everything".
func inSet(set map[int64]struct{}, id int64) bool {
	if set == nil {
		return true
	}
	_, ok := set[id]
	return ok
}

func sortedKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func hasGroupPrefix(groupName, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(groupName), strings.ToLower(prefix)+"-")
}

func page[T any](items []T, offset, limit uint64) []T {
	if limit == 0 {
		return items
	}
	if offset >= uint64(len(items)) {
		return []T{}
	}
	end := offset + limit
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[offset:end]
}
