package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
)

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if sameProfile(other.StudentID, u.StudentID) || sameProfile(other.TeacherID, u.TeacherID) {
			return apperrors.NewConflictError(apperrors.ErrProfileLinked.Error())
		}
	}
	u.ID = s.id()
	u.CreatedAt = s.now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CreateLoginLog(_ context.Context, l *models.LoginLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	s.loginLogs = append(s.loginLogs, *l)
	return nil
}

func (s *Store) CloseLatestLoginLog(_ context.Context, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := -1
	for i, l := range s.loginLogs {
		if l.UserID != userID || l.LogoutTime != nil {
			continue
		}
		if latest < 0 || l.LoginTime.After(s.loginLogs[latest].LoginTime) {
			latest = i
		}
	}
	if latest >= 0 {
		s.loginLogs[latest].LogoutTime = &at
	}
	return nil
}

func (s *Store) ListLoginLogs(_ context.Context, f models.LogFilter) ([]models.LoginLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.LoginLog{}
	for _, l := range s.loginLogs {
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		u, ok := s.users[l.UserID]
		if !ok {
			continue
		}
		l.Email = u.Email
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LoginTime.Equal(out[j].LoginTime) {
			return out[i].LoginTime.After(out[j].LoginTime)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (s *Store) CreateActivityLog(_ context.Context, l *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now()
	}
	l.ID = s.id()
	s.activityLogs = append(s.activityLogs, *l)
	return nil
}

func (s *Store) ListActivityLogs(_ context.Context, f models.LogFilter) ([]models.ActivityLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ActivityLog{}
	for _, l := range s.activityLogs {
		if f.UserID != nil && (l.UserID == nil || *l.UserID != *f.UserID) {
			continue
		}
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.Table != "" && l.TableName != f.Table {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}

func sameProfile(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
