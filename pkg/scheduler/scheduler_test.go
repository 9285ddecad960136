package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/rules"
)

type fakeEngine map[string]models.RuleResult

func (f fakeEngine) Evaluate(_ context.Context, change models.ShiftChange) models.RuleResult {
	return f[change.EmployeeID]
}

func eligible(weekly float64, warnings ...string) models.RuleResult {
	if warnings == nil {
		warnings = []string{}
	}
	return models.RuleResult{
		Eligible: true,
		Warnings: warnings,
		Blocks:   []string{},
		Metrics:  models.RuleMetrics{ProjectedWeeklyHours: weekly},
	}
}

func blocked(weekly float64, blocks ...string) models.RuleResult {
	return models.RuleResult{
		Warnings: []string{},
		Blocks:   blocks,
		Metrics:  models.RuleMetrics{ProjectedWeeklyHours: weekly},
	}
}

func openShift() models.Shift {
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	return models.Shift{ID: "s1", Start: start, End: start.Add(8 * time.Hour), IsOpen: true}
}

func employees(ids ...string) []models.Employee {
	out := make([]models.Employee, len(ids))
	for i, id := range ids {
		out[i] = models.Employee{ID: id, Name: "Employee " + id}
	}
	return out
}

func TestSuggest_RanksLeastLoadedFirst(t *testing.T) {
	engine := fakeEngine{
		"e1": eligible(32),
		"e2": eligible(16),
		"e3": eligible(16, rules.CodeOutsideAvailability),
		"e4": blocked(8, "LACK_SKILL_forklift"),
	}

	s := NewScheduler(engine, nil)
	suggestion := s.Suggest(context.Background(), openShift(), employees("e1", "e2", "e3", "e4"))

	require.Len(t, suggestion.Candidates, 3)
	assert.Equal(t, "e2", suggestion.Candidates[0].EmployeeID)
	assert.Equal(t, "e3", suggestion.Candidates[1].EmployeeID, "warnings break ties")
	assert.Equal(t, "e1", suggestion.Candidates[2].EmployeeID)
	require.Len(t, suggestion.Rejected, 1)
	assert.Equal(t, "e4", suggestion.Rejected[0].EmployeeID)
	assert.Empty(t, suggestion.Reasons)
}

func TestSuggest_NoEligibleCandidates(t *testing.T) {
	engine := fakeEngine{
		"e1": blocked(8, "LACK_SKILL_forklift"),
		"e2": blocked(16, rules.CodeOverlap, "REST_VIOLATION_8H"),
		"e3": blocked(0, rules.CodeEmployeeNotFound),
	}

	s := NewScheduler(engine, nil)
	suggestion := s.Suggest(context.Background(), openShift(), employees("e1", "e2", "e3"))

	assert.Empty(t, suggestion.Candidates)
	assert.NotNil(t, suggestion.Candidates)
	assert.Equal(t, []string{
		"1 employees lacked required skills",
		"1 employees had overlapping shifts",
		"1 employees would not get minimum rest",
		"1 employees could not be evaluated",
	}, suggestion.Reasons)
	assert.Equal(t, suggestion.FairnessScore, suggestion.FairnessAfter)
}

func TestSuggest_ReasonsCountEmployeesOnce(t *testing.T) {
	engine := fakeEngine{
		"e1": blocked(8, rules.CodeOverlap, rules.CodeOverlap, "LACK_SKILL_till", "LACK_SKILL_forklift"),
	}

	s := NewScheduler(engine, nil)
	suggestion := s.Suggest(context.Background(), openShift(), employees("e1"))

	assert.Equal(t, []string{
		"1 employees lacked required skills",
		"1 employees had overlapping shifts",
	}, suggestion.Reasons)
}

func TestSuggest_NoEmployees(t *testing.T) {
	s := NewScheduler(fakeEngine{}, nil)
	suggestion := s.Suggest(context.Background(), openShift(), nil)

	assert.Equal(t, []string{"no employees found for this shift"}, suggestion.Reasons)
	assert.Equal(t, 100.0, suggestion.FairnessScore)
}

func TestSuggest_FairnessAfterTopCandidate(t *testing.T) {
	// current loads: e1 0h, e2 8h; giving e1 the 8h shift evens them out
	engine := fakeEngine{
		"e1": eligible(8),
		"e2": eligible(16),
	}

	s := NewScheduler(engine, nil)
	suggestion := s.Suggest(context.Background(), openShift(), employees("e1", "e2"))

	assert.InDelta(t, 0.0, suggestion.FairnessScore, 1e-9)
	assert.InDelta(t, 100.0, suggestion.FairnessAfter, 1e-9)
}

func TestSuggest_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler(fakeEngine{"e1": eligible(8)}, nil)
	suggestion := s.Suggest(ctx, openShift(), employees("e1"))

	assert.Empty(t, suggestion.Candidates)
	assert.Empty(t, suggestion.Rejected)
}

func TestCalculateFairnessScore(t *testing.T) {
	tests := []struct {
		name  string
		hours []float64
		want  float64
	}{
		{"no employees", nil, 100},
		{"all idle", []float64{0, 0, 0}, 100},
		{"even", []float64{20, 20}, 100},
		{"half spread", []float64{10, 30}, 50},
		{"clamped at zero", []float64{0, 0, 0, 40}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateFairnessScore(tt.hours), 1e-9)
		})
	}
}

func TestShiftChangeFor(t *testing.T) {
	shift := openShift()
	shift.DepartmentID = "dept-1"
	shift.PositionID = "cashier"
	shift.RequiredSkills = []string{"till"}

	change := shift.ChangeFor("e1")

	assert.Equal(t, "e1", change.EmployeeID)
	assert.Equal(t, "s1", change.ShiftID)
	assert.Equal(t, "dept-1", change.DepartmentID)
	require.NotNil(t, change.PositionID)
	assert.Equal(t, "cashier", *change.PositionID)
	assert.Equal(t, shift.Start, change.StartAt)
	assert.Equal(t, []string{"till"}, change.RequiredSkills)
}
