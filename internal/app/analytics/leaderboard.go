package analytics

// Candidate is a student eligible for the leaderboard.
type Candidate struct {
	StudentID int64
	Name      string
	GroupName string
}

// LeaderboardOptions filters and bounds a leaderboard.
type LeaderboardOptions struct {
	Limit int
	// Groups keeps only students in one of these groups when non-empty.
	Groups []string
	// Department keeps only students whose group maps to it; "" disables the filter.
	Department string
	// MinGrades drops students with fewer grades.
	MinGrades int64
	// KnownDepartments feeds DepartmentOf.
	KnownDepartments []string
}

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Position       int
	StudentID      int64
	Name           string
	GroupName      string
	Department     string
	GPA            float64
	GradeCount     int64
	AttendanceRate float64
}

// Leaderboard ranks candidates by GPA descending with the same tie-break as
// RankOf, then applies the filters and truncates to Limit.
// Students whose group has no known department are only excluded when a
// department filter is requested.
func Leaderboard(candidates []Candidate, metrics map[int64]StudentMetrics, opts LeaderboardOptions) []LeaderboardEntry {
	groups := make(map[string]struct{}, len(opts.Groups))
	for _, g := range opts.Groups {
		groups[g] = struct{}{}
	}

	byID := make(map[int64]Candidate, len(candidates))
	pool := make(map[int64]StudentMetrics, len(candidates))
	for _, c := range candidates {
		if len(groups) > 0 {
			if _, ok := groups[c.GroupName]; !ok {
				continue
			}
		}
		dept := DepartmentOf(c.GroupName, opts.KnownDepartments)
		if opts.Department != "" && dept != opts.Department {
			continue
		}
		m := metrics[c.StudentID]
		m.StudentID = c.StudentID
		if m.GradeCount < opts.MinGrades {
			continue
		}
		byID[c.StudentID] = c
		pool[c.StudentID] = m
	}

	sorted := SortByGPA(pool)
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}

	out := make([]LeaderboardEntry, len(sorted))
	for i, m := range sorted {
		c := byID[m.StudentID]
		out[i] = LeaderboardEntry{
			Position:       i + 1,
			StudentID:      m.StudentID,
			Name:           c.Name,
			GroupName:      c.GroupName,
			Department:     DepartmentOf(c.GroupName, opts.KnownDepartments),
			GPA:            m.GPA,
			GradeCount:     m.GradeCount,
			AttendanceRate: m.AttendanceRate,
		}
	}
	return out
}
