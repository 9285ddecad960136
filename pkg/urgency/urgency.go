// Package urgency scores how pressing an outstanding task is.
//
// The score is a weighted sum of four signals:
//
//	0.4 * time decay      logistic curve on minutes until due
//	0.3 * criticality     level * 0.2, clamped to [0.2, 1.0]
//	0.2 * overdue flag    1 once the due time has passed
//	0.1 * shift proximity 0.3 in the last 30 minutes of the task window
//
// Overdue tasks never score below CriticalThreshold. Every function takes
// the current instant explicitly; nothing here reads the wall clock.
package urgency

import (
	"math"
	"sort"
	"time"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/timewindow"
)

const (
	weightTimeDecay      = 0.4
	weightCriticality    = 0.3
	weightOverdue        = 0.2
	weightShiftProximity = 0.1

	CriticalThreshold = 0.8
	HighThreshold     = 0.6
	MediumThreshold   = 0.4
)

// TimeDecay rises towards 1 as the due time approaches.
// Within the last hour the curve is centred on 30 minutes remaining,
// before that on 180 minutes remaining.
func TimeDecay(dueAt, now time.Time) float64 {
	if !dueAt.After(now) {
		return 1.0
	}
	minutes := timewindow.MinutesUntil(dueAt, now)
	if minutes <= 60 {
		return 1 / (1 + math.Exp(0.1*(minutes-30)))
	}
	return 1 / (1 + math.Exp(0.02*(minutes-180)))
}

// Criticality maps a 1-5 level onto [0.2, 1.0]
func Criticality(level int) float64 {
	return math.Min(math.Max(float64(level)*0.2, 0.2), 1.0)
}

// OverdueFlag is 1 once the due time is strictly in the past
func OverdueFlag(dueAt, now time.Time) float64 {
	if dueAt.Before(now) {
		return 1.0
	}
	return 0.0
}

// ShiftProximity is 0.3 when the task window closes within the next 30 minutes
func ShiftProximity(windowEnd *time.Time, now time.Time) float64 {
	if windowEnd == nil {
		return 0.0
	}
	minutes := timewindow.MinutesUntil(*windowEnd, now)
	if minutes > 0 && minutes <= 30 {
		return 0.3
	}
	return 0.0
}

// Score computes the urgency of task at now
func Score(task models.Task, now time.Time) float64 {
	overdue := OverdueFlag(task.DueAt, now)
	score := weightTimeDecay*TimeDecay(task.DueAt, now) +
		weightCriticality*Criticality(task.Criticality) +
		weightOverdue*overdue +
		weightShiftProximity*ShiftProximity(task.WindowEnd, now)

	if overdue == 1.0 && score < CriticalThreshold {
		return CriticalThreshold
	}
	return score
}

// Level buckets a score; each band includes its lower bound
func Level(score float64) models.UrgencyLevel {
	switch {
	case score >= CriticalThreshold:
		return models.UrgencyCritical
	case score >= HighThreshold:
		return models.UrgencyHigh
	case score >= MediumThreshold:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// Evaluate scores a task and attaches its level
func Evaluate(task models.Task, now time.Time) models.UrgencyResult {
	score := Score(task, now)
	return models.UrgencyResult{TaskID: task.ID, Score: score, Level: Level(score)}
}

// Rank scores the pending tasks (status empty or pending) and orders them
// most urgent first, breaking ties by earliest due time.
func Rank(tasks []models.Task, now time.Time) []models.UrgencyResult {
	pending := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == "" || task.Status == models.TaskPending {
			pending = append(pending, task)
		}
	}
	return RankAll(pending, now)
}

// RankAll orders tasks like Rank without filtering on status
func RankAll(tasks []models.Task, now time.Time) []models.UrgencyResult {
	type scored struct {
		result models.UrgencyResult
		dueAt  time.Time
	}

	ranked := make([]scored, len(tasks))
	for i, task := range tasks {
		ranked[i] = scored{result: Evaluate(task, now), dueAt: task.DueAt}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].result.Score != ranked[j].result.Score {
			return ranked[i].result.Score > ranked[j].result.Score
		}
		return ranked[i].dueAt.Before(ranked[j].dueAt)
	})

	results := make([]models.UrgencyResult, len(ranked))
	for i, r := range ranked {
		results[i] = r.result
	}
	return results
}
