package models

import "time"

// DateRange is a closed calendar interval. A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether d lies inside the range (date granularity).
func (r DateRange) Contains(d time.Time) bool {
	day := truncateDay(d)
	if r.From != nil && day.Before(truncateDay(*r.From)) {
		return false
	}
	if r.To != nil && day.After(truncateDay(*r.To)) {
		return false
	}
	return true
}

// LastDays returns the range covering the n days up to and including now.
// n <= 0 yields an unbounded range.
func LastDays(now time.Time, n int) DateRange {
	if n <= 0 {
		return DateRange{}
	}
	from := truncateDay(now).AddDate(0, 0, -n)
	return DateRange{From: &from}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SummaryFilter scopes grade and attendance summaries.
// A nil StudentIDs slice means every student; a non-nil empty slice matches nothing.
type SummaryFilter struct {
	StudentIDs []int64
	CourseIDs  []int64
	Range      DateRange
}

// MatchesNothing reports a filter that was explicitly narrowed to no students or courses.
func (f SummaryFilter) MatchesNothing() bool {
	return (f.StudentIDs != nil && len(f.StudentIDs) == 0) || (f.CourseIDs != nil && len(f.CourseIDs) == 0)
}

// GradeSummary is the per-student sum and count of grade values.
type GradeSummary struct {
	StudentID int64
	Sum       float64
	Count     int64
}

// AttendanceSummary is the per-student present and total record counts.
type AttendanceSummary struct {
	StudentID int64
	Present   int64
	Total     int64
}
