// Package rules decides whether an employee may be assigned to a shift.
//
// Evaluate runs a fixed sequence of checks against the employee record, the
// organization's labor rules and the employee's active assignments:
//
//  1. employee exists (short-circuits)
//  2. required skills            -> block
//  3. overlap with active shifts -> block (once per colliding shift)
//  4. minimum rest               -> block (labor rules only)
//  5. availability window        -> warning
//  6. weekly hour forecast       -> warning (labor rules only)
//  7. daily hour cap             -> warning (labor rules only)
//
// The engine never returns an error. Collaborator failures become the
// RULES_ENGINE_ERROR block and whatever was computed so far is returned.
//
// The verdict is a read-only snapshot. Callers persisting the assignment must
// serialize the commit per shift (see database.Store.ApproveClaim), otherwise
// two concurrent evaluations can both report eligible.
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/pkg/availability"
	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/timewindow"
)

// ErrEmployeeNotFound is returned by a Store when the employee does not exist
var ErrEmployeeNotFound = errors.New("employee not found")

// Store is the read-only data the engine depends on
type Store interface {
	// FetchEmployee returns ErrEmployeeNotFound for unknown ids.
	FetchEmployee(ctx context.Context, employeeID string) (*models.Employee, error)

	// FetchLaborRules returns nil, nil when the organization has no rules configured.
	FetchLaborRules(ctx context.Context, orgID string) (*models.LaborRules, error)

	// FetchActiveAssignments returns the employee's assigned shifts.
	FetchActiveAssignments(ctx context.Context, employeeID string) ([]models.Assignment, error)
}

// Engine evaluates proposed assignments
type Engine struct {
	Store    Store
	Logger   *zap.Logger
	Location *time.Location
}

// NewEngine creates a rules engine resolving local days in loc
func NewEngine(store Store, logger *zap.Logger, loc *time.Location) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{Store: store, Logger: logger, Location: loc}
}

// Evaluate runs every check for change and returns the verdict
func (e *Engine) Evaluate(ctx context.Context, change models.ShiftChange) (result models.RuleResult) {
	logger := e.logger().With(
		zap.String("employee_id", change.EmployeeID),
		zap.String("shift_id", change.ShiftID))

	result = models.RuleResult{Warnings: []string{}, Blocks: []string{}}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Rules engine panicked", zap.Any("panic", r))
			result.Blocks = append(result.Blocks, CodeEngineError)
			result.Eligible = false
		}
	}()

	logger.Debug("Evaluating assignment",
		zap.Time("start_at", change.StartAt),
		zap.Time("end_at", change.EndAt))

	if err := e.evaluate(ctx, change, &result); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			logger.Info("Employee not found")
			result.Blocks = append(result.Blocks, CodeEmployeeNotFound)
			result.Eligible = false
			return result
		}
		logger.Error("Rules engine failed", zap.Error(err))
		result.Blocks = append(result.Blocks, CodeEngineError)
	}

	result.Eligible = len(result.Blocks) == 0
	logger.Info("Assignment evaluated",
		zap.Bool("eligible", result.Eligible),
		zap.Strings("blocks", result.Blocks),
		zap.Strings("warnings", result.Warnings),
		zap.Float64("projected_weekly_hours", result.Metrics.ProjectedWeeklyHours))
	return result
}

func (e *Engine) evaluate(ctx context.Context, change models.ShiftChange, result *models.RuleResult) error {
	employee, err := e.Store.FetchEmployee(ctx, change.EmployeeID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return err
		}
		return fmt.Errorf("failed to fetch employee: %w", err)
	}
	if employee == nil {
		return ErrEmployeeNotFound
	}

	if missing := missingSkills(change.RequiredSkills, employee.Skills); len(missing) > 0 {
		result.Blocks = append(result.Blocks, LackSkill(missing))
	}

	laborRules, err := e.Store.FetchLaborRules(ctx, employee.OrgID)
	if err != nil {
		return fmt.Errorf("failed to fetch labor rules: %w", err)
	}

	assignments, err := e.Store.FetchActiveAssignments(ctx, employee.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch active assignments: %w", err)
	}
	active := make([]models.Shift, 0, len(assignments))
	for _, a := range assignments {
		if a.IsActive() {
			active = append(active, a.Shift)
		}
	}

	for _, existing := range active {
		if timewindow.Overlaps(change.StartAt, change.EndAt, existing.Start, existing.End) {
			result.Blocks = append(result.Blocks, CodeOverlap)
		}
	}

	if laborRules != nil {
		minRest := laborRules.MinRestHours
		for _, existing := range active {
			restAfterNew := timewindow.HoursBetween(change.EndAt, existing.Start)
			restAfterExisting := timewindow.HoursBetween(existing.End, change.StartAt)
			if shortRest(restAfterNew, minRest) || shortRest(restAfterExisting, minRest) {
				result.Blocks = append(result.Blocks, RestViolation(decimal.NewFromFloat(minRest)))
			}
		}
	}

	if employee.Availability != nil {
		constrained, within := availability.Check(employee.Availability, change.StartAt, change.EndAt, e.Location)
		if constrained && !within {
			result.Warnings = append(result.Warnings, CodeOutsideAvailability)
		}
	}

	newHours := hours(change.StartAt, change.EndAt)

	week := timewindow.WeekWindow(change.StartAt, e.Location)
	weekly := newHours.Add(sumHoursStartingIn(active, week))
	result.Metrics.ProjectedWeeklyHours = weekly.InexactFloat64()
	if laborRules != nil {
		maxWeek := decimal.NewFromFloat(laborRules.MaxHoursWeek)
		if weekly.GreaterThan(maxWeek) {
			overtime := weekly.Sub(maxWeek)
			result.Metrics.ProjectedOvertimeHours = overtime.InexactFloat64()
			result.Warnings = append(result.Warnings, OvertimeForecast(overtime))
		}
	}

	day := timewindow.DayWindow(change.StartAt, e.Location)
	daily := newHours.Add(sumHoursStartingIn(active, day))
	if laborRules != nil {
		maxDay := decimal.NewFromFloat(laborRules.MaxHoursDay)
		if daily.GreaterThan(maxDay) {
			result.Warnings = append(result.Warnings, DailyMaxExceeded(daily.Sub(maxDay)))
		}
	}

	return nil
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// shortRest counts only non-negative gaps below the minimum
func shortRest(gap, minRest float64) bool {
	return gap >= 0 && gap < minRest
}

// missingSkills returns required skills the employee lacks, in required order
func missingSkills(required, have []string) []string {
	owned := make(map[string]struct{}, len(have))
	for _, skill := range have {
		owned[skill] = struct{}{}
	}
	var missing []string
	for _, skill := range required {
		if _, ok := owned[skill]; !ok {
			missing = append(missing, skill)
		}
	}
	return missing
}

var millisPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

func hours(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(end.Sub(start).Milliseconds()).Div(millisPerHour)
}

func sumHoursStartingIn(shifts []models.Shift, window timewindow.Window) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shifts {
		if window.Contains(s.Start) {
			total = total.Add(hours(s.Start, s.End))
		}
	}
	return total
}
