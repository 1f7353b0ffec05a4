package analytics

import (
	"math"
	"time"

	"github.com/mirea/edupulse/internal/app/models"
)

// Prediction is a heuristic outlook for one student.
type Prediction struct {
	BurnoutRisk        float64
	SuccessProbability float64
	PredictedGPA       float64
}

const (
	recentWindowDays = 30
	longWindowDays   = 60
	// defaultPredictedGPA is reported for students with no grades at all.
	defaultPredictedGPA = 3.5
)

type gradeWindow struct {
	sum   float64
	count int
	vals  []float64
}

func (w *gradeWindow) add(v float64) {
	w.sum += v
	w.count++
	w.vals = append(w.vals, v)
}

func (w *gradeWindow) mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

func (w *gradeWindow) stddev() float64 {
	if w.count == 0 {
		return 0
	}
	mean := w.mean()
	var sq float64
	for _, v := range w.vals {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(w.count))
}

func daysBefore(now time.Time, n int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -n)
}

// Predict derives burnout risk, success probability and an end-of-term GPA
// estimate from a student's raw grades and attendance.
func Predict(grades []models.Grade, attendance []models.Attendance, now time.Time) Prediction {
	recentFrom := daysBefore(now, recentWindowDays)
	longFrom := daysBefore(now, longWindowDays)

	var all, recent, previous, long gradeWindow
	for _, g := range grades {
		all.add(g.Value)
		switch {
		case !g.Date.Before(recentFrom):
			recent.add(g.Value)
			long.add(g.Value)
		case !g.Date.Before(longFrom):
			previous.add(g.Value)
			long.add(g.Value)
		}
	}

	var recentPresent, recentTotal, longPresent, longTotal int64
	for _, a := range attendance {
		if a.Date.Before(longFrom) {
			continue
		}
		longTotal++
		if a.Present {
			longPresent++
		}
		if !a.Date.Before(recentFrom) {
			recentTotal++
			if a.Present {
				recentPresent++
			}
		}
	}

	return Prediction{
		BurnoutRisk:        Round2(burnoutRisk(recent, previous, recentPresent, recentTotal)),
		SuccessProbability: Round2(successProbability(all, long, longPresent, longTotal)),
		PredictedGPA:       Round2(predictedGPA(all, recent)),
	}
}

func burnoutRisk(recent, previous gradeWindow, present, total int64) float64 {
	var risk float64
	switch {
	case recent.count > 15:
		risk += 0.3
	case recent.count > 10:
		risk += 0.2
	}
	if total > 0 {
		rate := float64(present) / float64(total)
		switch {
		case rate < 0.7:
			risk += 0.25
		case rate < 0.8:
			risk += 0.15
		}
	}
	if recent.count > 0 && previous.count > 0 && recent.mean() < previous.mean()-0.5 {
		risk += 0.25
	}
	return math.Min(risk, 1)
}

func successProbability(all, long gradeWindow, present, total int64) float64 {
	var p float64
	if all.count > 0 {
		switch avg := all.mean(); {
		case avg >= 4.5:
			p += 0.4
		case avg >= 4.0:
			p += 0.3
		case avg >= 3.5:
			p += 0.2
		default:
			p += 0.1
		}
	}

	// No attendance at all while grades exist is treated like zero attendance.
	penalty := false
	if total > 0 {
		rate := float64(present) / float64(total)
		p += rate * 0.3
		penalty = present == 0
	} else if all.count > 0 {
		penalty = true
	}

	if long.count > 5 {
		p += math.Max(0, 1-long.stddev()) * 0.1
	}

	p = math.Min(p, 1)
	if penalty {
		p = math.Min(p, 0.4)
	}
	return p
}

func predictedGPA(all, recent gradeWindow) float64 {
	if all.count == 0 {
		return defaultPredictedGPA
	}
	current := all.mean()
	if recent.count == 0 {
		return current
	}
	if recent.mean() > current {
		return math.Min(current+0.2, models.MaxGradeValue)
	}
	return math.Max(current-0.1, models.MinGradeValue)
}
