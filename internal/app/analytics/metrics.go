// Package analytics holds the pure aggregation rules shared by every stats
// endpoint. Functions here never touch storage: callers load grade and
// attendance summaries once and feed them in, so single-entity and bulk
// results are computed by the same code.
package analytics

import (
	"math"

	"github.com/mirea/edupulse/internal/app/models"
)

// Round2 rounds half away from zero to two decimals. Applied only at the API boundary.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GPA is the arithmetic mean of grade values; no grades yields 0.
func GPA(sum float64, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return sum / float64(count)
}

// AttendanceRate is present/total as a percentage; no records yields 0.
func AttendanceRate(present, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// StudentMetrics is the computed academic picture of one student.
type StudentMetrics struct {
	StudentID      int64
	GradeSum       float64
	GradeCount     int64
	GPA            float64
	Present        int64
	Total          int64
	AttendanceRate float64
}

// HasGrades reports whether the student has at least one grade in scope.
func (m StudentMetrics) HasGrades() bool {
	return m.GradeCount > 0
}

// BuildStudentMetrics joins grade and attendance summaries for the given students.
// Every id in ids gets an entry, even with no rows; summaries for ids outside the list are ignored.
func BuildStudentMetrics(ids []int64, grades []models.GradeSummary, attendance []models.AttendanceSummary) map[int64]StudentMetrics {
	out := make(map[int64]StudentMetrics, len(ids))
	for _, id := range ids {
		out[id] = StudentMetrics{StudentID: id}
	}
	for _, g := range grades {
		m, ok := out[g.StudentID]
		if !ok {
			continue
		}
		m.GradeSum += g.Sum
		m.GradeCount += g.Count
		out[g.StudentID] = m
	}
	for _, a := range attendance {
		m, ok := out[a.StudentID]
		if !ok {
			continue
		}
		m.Present += a.Present
		m.Total += a.Total
		out[a.StudentID] = m
	}
	for id, m := range out {
		m.GPA = GPA(m.GradeSum, m.GradeCount)
		m.AttendanceRate = AttendanceRate(m.Present, m.Total)
		out[id] = m
	}
	return out
}

// GroupMetrics is the rollup of a set of students.
type GroupMetrics struct {
	TotalStudents  int
	GradedStudents int
	// AverageGPA is the mean of per-student GPAs over members with at least one grade.
	AverageGPA float64
	// AttendanceRate pools every member's records: sum(present)/sum(total).
	AttendanceRate float64
	Present        int64
	Total          int64
}

// GroupRollup aggregates members two-level for GPA and pooled for attendance.
func GroupRollup(members []int64, metrics map[int64]StudentMetrics) GroupMetrics {
	g := GroupMetrics{TotalStudents: len(members)}
	var gpaSum float64
	for _, id := range members {
		m := metrics[id]
		if m.HasGrades() {
			gpaSum += m.GPA
			g.GradedStudents++
		}
		g.Present += m.Present
		g.Total += m.Total
	}
	if g.GradedStudents > 0 {
		g.AverageGPA = gpaSum / float64(g.GradedStudents)
	}
	g.AttendanceRate = AttendanceRate(g.Present, g.Total)
	return g
}

// FlatAverage is the mean over all grade rows in the summaries (not per student).
func FlatAverage(grades []models.GradeSummary) float64 {
	var sum float64
	var count int64
	for _, g := range grades {
		sum += g.Sum
		count += g.Count
	}
	return GPA(sum, count)
}

// PooledAttendance is sum(present)/sum(total) over all summaries.
func PooledAttendance(attendance []models.AttendanceSummary) float64 {
	var present, total int64
	for _, a := range attendance {
		present += a.Present
		total += a.Total
	}
	return AttendanceRate(present, total)
}
