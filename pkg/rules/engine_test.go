package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

// fakeStore serves canned collaborator data
type fakeStore struct {
	employee    *models.Employee
	rules       *models.LaborRules
	assignments []models.Assignment

	employeeErr    error
	rulesErr       error
	assignmentsErr error
}

func (f *fakeStore) FetchEmployee(_ context.Context, id string) (*models.Employee, error) {
	if f.employeeErr != nil {
		return nil, f.employeeErr
	}
	if f.employee == nil || f.employee.ID != id {
		return nil, ErrEmployeeNotFound
	}
	return f.employee, nil
}

func (f *fakeStore) FetchLaborRules(_ context.Context, _ string) (*models.LaborRules, error) {
	return f.rules, f.rulesErr
}

func (f *fakeStore) FetchActiveAssignments(_ context.Context, _ string) ([]models.Assignment, error) {
	return f.assignments, f.assignmentsErr
}

// 2025-03-10 is a Monday
func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func employee() *models.Employee {
	return &models.Employee{ID: "emp-1", OrgID: "org-1", Skills: []string{"till"}}
}

func standardRules() *models.LaborRules {
	return &models.LaborRules{OrgID: "org-1", MinRestHours: 8, MaxHoursDay: 10, MaxHoursWeek: 40}
}

func assigned(id string, start, end time.Time) models.Assignment {
	return models.Assignment{
		ID:         "a-" + id,
		ShiftID:    id,
		EmployeeID: "emp-1",
		Status:     models.StatusAssigned,
		Shift:      models.Shift{ID: id, Start: start, End: end},
	}
}

func change(start, end time.Time) models.ShiftChange {
	return models.ShiftChange{
		EmployeeID:   "emp-1",
		ShiftID:      "new",
		DepartmentID: "dept-1",
		StartAt:      start,
		EndAt:        end,
	}
}

func evaluate(store Store, c models.ShiftChange) models.RuleResult {
	return NewEngine(store, nil, time.UTC).Evaluate(context.Background(), c)
}

func TestEvaluate_Eligible(t *testing.T) {
	store := &fakeStore{employee: employee(), rules: standardRules()}

	result := evaluate(store, change(at(10, 9), at(10, 17)))

	assert.True(t, result.Eligible)
	assert.Empty(t, result.Blocks)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Blocks)
	assert.NotNil(t, result.Warnings)
	assert.Equal(t, 8.0, result.Metrics.ProjectedWeeklyHours)
	assert.Equal(t, 0.0, result.Metrics.ProjectedOvertimeHours)
}

func TestEvaluate_EmployeeNotFound(t *testing.T) {
	store := &fakeStore{rulesErr: errors.New("must not be reached")}
	c := change(at(10, 9), at(10, 17))
	c.RequiredSkills = []string{"forklift"}

	result := evaluate(store, c)

	assert.False(t, result.Eligible)
	assert.Equal(t, []string{CodeEmployeeNotFound}, result.Blocks)
	assert.Empty(t, result.Warnings)
}

func TestEvaluate_LackSkill(t *testing.T) {
	emp := employee()
	emp.Skills = []string{}
	store := &fakeStore{employee: emp}
	c := change(at(10, 9), at(10, 17))
	c.RequiredSkills = []string{"forklift"}

	result := evaluate(store, c)

	assert.False(t, result.Eligible)
	assert.Contains(t, result.Blocks, "LACK_SKILL_forklift")
}

func TestEvaluate_LackSkill_JoinsAllMissing(t *testing.T) {
	store := &fakeStore{employee: employee()}
	c := change(at(10, 9), at(10, 17))
	c.RequiredSkills = []string{"forklift", "till", "first_aid"}

	result := evaluate(store, c)

	assert.Equal(t, []string{"LACK_SKILL_forklift_first_aid"}, result.Blocks)
}

func TestEvaluate_Overlap(t *testing.T) {
	store := &fakeStore{
		employee: employee(),
		assignments: []models.Assignment{
			assigned("s1", at(10, 9), at(10, 17)),
			assigned("s2", at(10, 12), at(10, 14)),
		},
	}

	result := evaluate(store, change(at(10, 11), at(10, 19)))

	assert.False(t, result.Eligible)
	assert.Equal(t, []string{CodeOverlap, CodeOverlap}, result.Blocks, "one block per colliding shift")
}

func TestEvaluate_IgnoresInactiveAssignments(t *testing.T) {
	cancelled := assigned("s1", at(10, 9), at(10, 17))
	cancelled.Status = models.StatusCancelled
	waiting := assigned("s2", at(10, 9), at(10, 17))
	waiting.Status = models.StatusWaiting
	store := &fakeStore{employee: employee(), assignments: []models.Assignment{cancelled, waiting}}

	result := evaluate(store, change(at(10, 9), at(10, 17)))

	assert.True(t, result.Eligible)
	assert.Equal(t, 8.0, result.Metrics.ProjectedWeeklyHours)
}

func TestEvaluate_RestViolation(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"new shift after existing", at(10, 21), at(10, 23)},
		{"new shift before existing", at(10, 1), at(10, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				employee:    employee(),
				rules:       standardRules(),
				assignments: []models.Assignment{assigned("s1", at(10, 9), at(10, 17))},
			}

			result := evaluate(store, change(tt.start, tt.end))

			assert.False(t, result.Eligible)
			assert.Equal(t, []string{"REST_VIOLATION_8H"}, result.Blocks)
		})
	}
}

func TestEvaluate_RestViolation_BackToBack(t *testing.T) {
	store := &fakeStore{
		employee:    employee(),
		rules:       standardRules(),
		assignments: []models.Assignment{assigned("s1", at(10, 9), at(10, 17))},
	}

	result := evaluate(store, change(at(10, 17), at(10, 19)))

	assert.Equal(t, []string{"REST_VIOLATION_8H"}, result.Blocks, "zero gap is short rest, not overlap")
}

func TestEvaluate_RestIgnoredWithoutLaborRules(t *testing.T) {
	store := &fakeStore{
		employee:    employee(),
		assignments: []models.Assignment{assigned("s1", at(10, 9), at(10, 17))},
	}

	result := evaluate(store, change(at(10, 21), at(10, 23)))

	assert.True(t, result.Eligible)
	assert.Empty(t, result.Warnings)
}

func TestEvaluate_EnoughRest(t *testing.T) {
	store := &fakeStore{
		employee:    employee(),
		rules:       standardRules(),
		assignments: []models.Assignment{assigned("s1", at(10, 9), at(10, 17))},
	}

	result := evaluate(store, change(at(11, 1), at(11, 9)))

	assert.True(t, result.Eligible)
}

func TestEvaluate_OutsideAvailabilityIsWarning(t *testing.T) {
	emp := employee()
	emp.Availability = models.AvailabilityMap{models.Monday: {{"06:00", "14:00"}}}
	store := &fakeStore{employee: emp}

	result := evaluate(store, change(at(10, 9), at(10, 17)))

	assert.True(t, result.Eligible)
	assert.Equal(t, []string{CodeOutsideAvailability}, result.Warnings)
}

func TestEvaluate_EmptyAvailabilityDayIsUnconstrained(t *testing.T) {
	emp := employee()
	emp.Availability = models.AvailabilityMap{models.Monday: {}, models.Tuesday: {{"06:00", "14:00"}}}
	store := &fakeStore{employee: emp}

	result := evaluate(store, change(at(10, 9), at(10, 17)))

	assert.Empty(t, result.Warnings)
}

func TestEvaluate_OvertimeForecast(t *testing.T) {
	// 37h already this week plus an 8h shift on Saturday = 45h
	store := &fakeStore{
		employee: employee(),
		rules:    standardRules(),
		assignments: []models.Assignment{
			assigned("mon", at(10, 8), at(10, 17)),
			assigned("tue", at(11, 8), at(11, 17)),
			assigned("wed", at(12, 8), at(12, 17)),
			assigned("thu", at(13, 8), at(13, 18)),
			assigned("next-week", at(17, 8), at(17, 18)),
		},
	}

	result := evaluate(store, change(at(15, 9), at(15, 17)))

	assert.True(t, result.Eligible, "overtime is advisory")
	assert.Equal(t, 45.0, result.Metrics.ProjectedWeeklyHours)
	assert.Equal(t, 5.0, result.Metrics.ProjectedOvertimeHours)
	assert.Contains(t, result.Warnings, "OVERTIME_FORECAST_5H")
}

func TestEvaluate_OvertimeNotReportedWithoutLaborRules(t *testing.T) {
	store := &fakeStore{
		employee: employee(),
		assignments: []models.Assignment{
			assigned("mon", at(10, 0), at(10, 20)),
			assigned("tue", at(11, 0), at(11, 20)),
		},
	}

	result := evaluate(store, change(at(12, 0), at(12, 8)))

	assert.Equal(t, 48.0, result.Metrics.ProjectedWeeklyHours, "metrics are still projected")
	assert.Equal(t, 0.0, result.Metrics.ProjectedOvertimeHours)
	assert.Empty(t, result.Warnings)
}

func TestEvaluate_DailyMaxExceeded(t *testing.T) {
	store := &fakeStore{
		employee:    employee(),
		rules:       &models.LaborRules{MinRestHours: 0, MaxHoursDay: 10, MaxHoursWeek: 60},
		assignments: []models.Assignment{assigned("morning", at(10, 6), at(10, 12))},
	}

	result := evaluate(store, change(at(10, 12), at(10, 18).Add(30*time.Minute)))

	assert.True(t, result.Eligible)
	assert.Equal(t, []string{"DAILY_MAX_EXCEEDED_2.5H"}, result.Warnings)
}

func TestEvaluate_FetchFailureIsContained(t *testing.T) {
	store := &fakeStore{
		employee:       employee(),
		assignmentsErr: errors.New("connection reset"),
	}
	c := change(at(10, 9), at(10, 17))
	c.RequiredSkills = []string{"forklift"}

	result := evaluate(store, c)

	assert.False(t, result.Eligible)
	assert.Equal(t, []string{"LACK_SKILL_forklift", CodeEngineError}, result.Blocks)
}

func TestEvaluate_EmployeeFetchFailure(t *testing.T) {
	store := &fakeStore{employeeErr: errors.New("timeout")}

	result := evaluate(store, change(at(10, 9), at(10, 17)))

	assert.False(t, result.Eligible)
	assert.Equal(t, []string{CodeEngineError}, result.Blocks)
}

func TestEvaluate_PanicIsContained(t *testing.T) {
	engine := &Engine{}

	var result models.RuleResult
	require.NotPanics(t, func() {
		result = engine.Evaluate(context.Background(), change(at(10, 9), at(10, 17)))
	})
	assert.False(t, result.Eligible)
	assert.Equal(t, []string{CodeEngineError}, result.Blocks)
}

func TestEvaluate_LocalDayBoundaries(t *testing.T) {
	// 23:00 UTC Sunday is already Monday in UTC+2, so the existing Sunday shift
	// falls outside the projected week
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	store := &fakeStore{
		employee:    employee(),
		rules:       standardRules(),
		assignments: []models.Assignment{assigned("sun", at(16, 8), at(16, 16))},
	}

	engine := NewEngine(store, nil, plusTwo)
	result := engine.Evaluate(context.Background(), change(at(16, 23), at(17, 5)))

	assert.Equal(t, 6.0, result.Metrics.ProjectedWeeklyHours)
}
