package services

import (
	"time"

	"github.com/mirea/edupulse/internal/app/analytics"
	"github.com/mirea/edupulse/internal/app/models"
)

// AnalyticsOptions tunes the aggregation endpoints.
type AnalyticsOptions struct {
	// AttendanceWindowDays is the default attendance window; 0 means all records.
	AttendanceWindowDays int
	// DashboardWindowDays bounds the attendance shown on the dashboard.
	DashboardWindowDays int
	KnownDepartments    []string
	LeaderboardLimit    int
	LeaderboardMaxLimit int
	// LeaderboardMinGrades is the default minimum number of grades to be ranked.
	LeaderboardMinGrades int64
}

// DefaultAnalyticsOptions mirrors configs/config.yaml.
func DefaultAnalyticsOptions() AnalyticsOptions {
	return AnalyticsOptions{
		AttendanceWindowDays: 60,
		DashboardWindowDays:  30,
		KnownDepartments:     analytics.DefaultDepartments,
		LeaderboardLimit:     10,
		LeaderboardMaxLimit:  100,
	}
}

// clock is overridden in tests.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func (c clock) today() time.Time {
	y, m, d := c.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// resolveRange applies the default window when neither bound was requested.
func resolveRange(r models.DateRange, now time.Time, windowDays int) models.DateRange {
	if r.From == nil && r.To == nil {
		return models.LastDays(now, windowDays)
	}
	return r
}
