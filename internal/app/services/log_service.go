package services

import (
	"context"

	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/pkg/helpers"
)

// LogService defines the interface for reading the audit trail and login sessions
type LogService interface {
	ListActivity(ctx context.Context, filter models.LogFilter, page helpers.Page) (*dto.PaginatedResponse, error)
	ListLogins(ctx context.Context, filter models.LogFilter, page helpers.Page) (*dto.PaginatedResponse, error)
}

type logServiceImpl struct {
	logs LogStore
}

// NewLogService creates a new log service
func NewLogService(logs LogStore) LogService {
	return &logServiceImpl{logs: logs}
}

// ListActivity returns a page of activity log rows, newest first
func (s *logServiceImpl) ListActivity(ctx context.Context, filter models.LogFilter, page helpers.Page) (*dto.PaginatedResponse, error) {
	page = page.Normalize()
	filter.Offset, filter.Limit = page.OffsetLimit()
	rows, total, err := s.logs.ListActivityLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ActivityLogResponse, len(rows))
	for i, l := range rows {
		items[i] = dto.ActivityLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			ActionType: l.Action,
			TableName:  l.TableName,
			RecordID:   l.RecordID,
			OldValues:  l.OldValues,
			NewValues:  l.NewValues,
			Timestamp:  l.Timestamp,
		}
	}
	return &dto.PaginatedResponse{Items: items, Pagination: helpers.NewPaginationInfo(total, page)}, nil
}

// ListLogins returns a page of login sessions, newest first
func (s *logServiceImpl) ListLogins(ctx context.Context, filter models.LogFilter, page helpers.Page) (*dto.PaginatedResponse, error) {
	page = page.Normalize()
	filter.Offset, filter.Limit = page.OffsetLimit()
	rows, total, err := s.logs.ListLoginLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LoginLogResponse, len(rows))
	for i, l := range rows {
		items[i] = dto.LoginLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			Email:      l.Email,
			LoginTime:  l.LoginTime,
			LogoutTime: l.LogoutTime,
			IPAddress:  l.IPAddress,
			UserAgent:  l.UserAgent,
		}
	}
	return &dto.PaginatedResponse{Items: items, Pagination: helpers.NewPaginationInfo(total, page)}, nil
}
