package assessment

import (
	"math"
	"sort"
	"time"

	"quiz-assessment/internal/domain"
)

// ChartSize is the number of recent attempts plotted in the progress chart.
const ChartSize = 10

// ChartPoint is one bar of the progress chart.
type ChartPoint struct {
	CompletedAt  time.Time           `json:"completedAt"`
	Percentage   float64             `json:"percentage"`
	MasteryLevel domain.MasteryLevel `json:"masteryLevel"`
}

// Summary aggregates past attempts. HasData is false for an empty history,
// in which case the statistics are zero.
type Summary struct {
	HasData  bool                 `json:"hasData"`
	Attempts []domain.QuizAttempt `json:"attempts"`
	Best     float64              `json:"best"`
	Latest   float64              `json:"latest"`
	Average  int                  `json:"average"`
	Chart    []ChartPoint         `json:"chart"`
}

// Summarize computes history statistics without touching the input slice.
// Attempts are listed newest first; the chart runs oldest to newest.
func Summarize(attempts []domain.QuizAttempt) Summary {
	if len(attempts) == 0 {
		return Summary{Attempts: []domain.QuizAttempt{}, Chart: []ChartPoint{}}
	}

	sorted := make([]domain.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	sum := 0.0
	best := sorted[0].Percentage
	for _, a := range sorted {
		sum += a.Percentage
		if a.Percentage > best {
			best = a.Percentage
		}
	}

	recent := sorted
	if len(recent) > ChartSize {
		recent = recent[:ChartSize]
	}
	chart := make([]ChartPoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		chart = append(chart, ChartPoint{
			CompletedAt:  recent[i].CompletedAt,
			Percentage:   recent[i].Percentage,
			MasteryLevel: recent[i].MasteryLevel,
		})
	}

	return Summary{
		HasData:  true,
		Attempts: sorted,
		Best:     best,
		Latest:   sorted[0].Percentage,
		Average:  int(math.Round(sum / float64(len(sorted)))),
		Chart:    chart,
	}
}
