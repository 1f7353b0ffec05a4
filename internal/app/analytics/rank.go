package analytics

import (
	"sort"
)

// Ranked is a student's position in a GPA ordering.
type Ranked struct {
	StudentID int64
	GPA       float64
	Rank      int
}

// less orders by GPA descending, then by student id ascending.
// The id tie-break makes every ordering total and stable across calls.
func less(a, b StudentMetrics) bool {
	if a.GPA != b.GPA {
		return a.GPA > b.GPA
	}
	return a.StudentID < b.StudentID
}

// SortByGPA returns metrics ordered for ranking.
func SortByGPA(metrics map[int64]StudentMetrics) []StudentMetrics {
	out := make([]StudentMetrics, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// RankAll assigns 1-based ranks over the whole population.
func RankAll(metrics map[int64]StudentMetrics) []Ranked {
	sorted := SortByGPA(metrics)
	out := make([]Ranked, len(sorted))
	for i, m := range sorted {
		out[i] = Ranked{StudentID: m.StudentID, GPA: m.GPA, Rank: i + 1}
	}
	return out
}

// RankOf returns the 1-based rank of studentID among the population.
// It counts students strictly ahead instead of sorting, so it is O(n).
func RankOf(studentID int64, metrics map[int64]StudentMetrics) (int, bool) {
	self, ok := metrics[studentID]
	if !ok {
		return 0, false
	}
	rank := 1
	for id, m := range metrics {
		if id != studentID && less(m, self) {
			rank++
		}
	}
	return rank, true
}
