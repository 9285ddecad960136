package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/rules"
)

// Evaluator decides whether a single assignment is allowed
type Evaluator interface {
	Evaluate(ctx context.Context, change models.ShiftChange) models.RuleResult
}

// Candidate is one employee considered for an open shift
type Candidate struct {
	EmployeeID           string   `json:"employee_id"`
	Name                 string   `json:"name"`
	Eligible             bool     `json:"eligible"`
	ProjectedWeeklyHours float64  `json:"projected_weekly_hours"`
	Warnings             []string `json:"warnings"`
	Blocks               []string `json:"blocks"`
}

// CurrentWeeklyHours is the candidate's load before taking the shift
func (c Candidate) CurrentWeeklyHours(shiftHours float64) float64 {
	return math.Max(c.ProjectedWeeklyHours-shiftHours, 0)
}

// Suggestion ranks the candidates for one open shift
type Suggestion struct {
	ShiftID       string      `json:"shift_id"`
	Candidates    []Candidate `json:"candidates"`
	Rejected      []Candidate `json:"rejected"`
	Reasons       []string    `json:"reasons,omitempty"`
	FairnessScore float64     `json:"fairness_score"`
	FairnessAfter float64     `json:"fairness_after"`
}

// Scheduler suggests employees for open shifts
type Scheduler struct {
	Engine Evaluator
	Logger *zap.Logger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(engine Evaluator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{Engine: engine, Logger: logger}
}

// Suggest evaluates every employee against shift. Eligible candidates come
// first, least loaded first; ties prefer fewer warnings, then employee id.
func (s *Scheduler) Suggest(ctx context.Context, shift models.Shift, employees []models.Employee) Suggestion {
	suggestion := Suggestion{
		ShiftID:    shift.ID,
		Candidates: []Candidate{},
		Rejected:   []Candidate{},
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			s.Logger.Warn("Candidate suggestion interrupted", zap.String("shift_id", shift.ID), zap.Error(err))
			break
		}
		result := s.Engine.Evaluate(ctx, shift.ChangeFor(emp.ID))
		c := Candidate{
			EmployeeID:           emp.ID,
			Name:                 emp.Name,
			Eligible:             result.Eligible,
			ProjectedWeeklyHours: result.Metrics.ProjectedWeeklyHours,
			Warnings:             result.Warnings,
			Blocks:               result.Blocks,
		}
		if c.Eligible {
			suggestion.Candidates = append(suggestion.Candidates, c)
		} else {
			suggestion.Rejected = append(suggestion.Rejected, c)
		}
	}

	sort.SliceStable(suggestion.Candidates, func(i, j int) bool {
		a, b := suggestion.Candidates[i], suggestion.Candidates[j]
		if a.ProjectedWeeklyHours != b.ProjectedWeeklyHours {
			return a.ProjectedWeeklyHours < b.ProjectedWeeklyHours
		}
		if len(a.Warnings) != len(b.Warnings) {
			return len(a.Warnings) < len(b.Warnings)
		}
		return a.EmployeeID < b.EmployeeID
	})

	shiftHours := shift.Hours()
	current := make([]float64, 0, len(suggestion.Candidates)+len(suggestion.Rejected))
	for _, c := range suggestion.Candidates {
		current = append(current, c.CurrentWeeklyHours(shiftHours))
	}
	for _, c := range suggestion.Rejected {
		if c.hasBlock(rules.CodeEmployeeNotFound) || c.hasBlock(rules.CodeEngineError) {
			continue
		}
		current = append(current, c.CurrentWeeklyHours(shiftHours))
	}
	suggestion.FairnessScore = CalculateFairnessScore(current)
	suggestion.FairnessAfter = suggestion.FairnessScore
	if len(suggestion.Candidates) > 0 {
		after := append([]float64{}, current...)
		after[0] += shiftHours
		suggestion.FairnessAfter = CalculateFairnessScore(after)
	} else {
		suggestion.Reasons = rejectionReasons(suggestion.Rejected)
	}

	s.Logger.Info("Candidates suggested",
		zap.String("shift_id", shift.ID),
		zap.Int("eligible", len(suggestion.Candidates)),
		zap.Int("rejected", len(suggestion.Rejected)),
		zap.Float64("fairness_score", suggestion.FairnessScore))
	return suggestion
}

func (c Candidate) hasBlock(code string) bool {
	for _, b := range c.Blocks {
		if b == code {
			return true
		}
	}
	return false
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rejectionReasons summarizes why nobody could take the shift
func rejectionReasons(rejected []Candidate) []string {
	var skills, overlap, rest, failed int
	for _, c := range rejected {
		// each category counts a candidate at most once
		var lacksSkill, overlaps, shortRest, unevaluated bool
		for _, b := range c.Blocks {
			switch {
			case strings.HasPrefix(b, "LACK_SKILL_"):
				lacksSkill = true
			case b == rules.CodeOverlap:
				overlaps = true
			case strings.HasPrefix(b, "REST_VIOLATION_"):
				shortRest = true
			case b == rules.CodeEngineError || b == rules.CodeEmployeeNotFound:
				unevaluated = true
			}
		}
		skills += btoi(lacksSkill)
		overlap += btoi(overlaps)
		rest += btoi(shortRest)
		failed += btoi(unevaluated)
	}

	var reasons []string
	if skills > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees lacked required skills", skills))
	}
	if overlap > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees had overlapping shifts", overlap))
	}
	if rest > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees would not get minimum rest", rest))
	}
	if failed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees could not be evaluated", failed))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no employees found for this shift")
	}
	return reasons
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// hours are distributed. 100% is perfectly fair (Standard Deviation = 0).
func CalculateFairnessScore(hours []float64) float64 {
	if len(hours) == 0 {
		return 100.0
	}

	var sum float64
	for _, h := range hours {
		sum += h
	}
	if sum == 0 {
		return 100.0 // Everyone having 0 hours is perfectly fair
	}

	mean := sum / float64(len(hours))

	var varianceSum float64
	for _, h := range hours {
		diff := h - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(hours)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
