// Package templates expands recurring shift and task templates into concrete
// rows. Recurrence is an RFC 5545 RRULE evaluated on the template's local clock.
package templates

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/timewindow"
	"github.com/shiftdesk/workforce-api/pkg/urgency"
)

// MaxOccurrences bounds a single materialization run
const MaxOccurrences = 1000

// ErrTooManyOccurrences is returned when a rule expands past MaxOccurrences
var ErrTooManyOccurrences = errors.New("template expands to too many occurrences")

var validate = validator.New()

// ShiftTemplate describes a recurring shift
type ShiftTemplate struct {
	ID              string   `json:"id"`
	DepartmentID    string   `json:"department_id" validate:"required"`
	LocationID      string   `json:"location_id,omitempty"`
	AreaID          string   `json:"area_id,omitempty"`
	PositionID      string   `json:"position_id,omitempty"`
	RequiredSkills  []string `json:"required_skills,omitempty"`
	RRule           string   `json:"rrule" validate:"required"`
	StartTime       string   `json:"start_time" validate:"required"` // HH:MM local
	DurationMinutes int      `json:"duration_minutes" validate:"gt=0,lte=1440"`
	Timezone        string   `json:"timezone,omitempty"`
	Open            bool     `json:"open"`
}

// TaskTemplate describes a recurring task
type TaskTemplate struct {
	ID            string `json:"id"`
	DepartmentID  string `json:"department_id,omitempty"`
	Title         string `json:"title" validate:"required"`
	RRule         string `json:"rrule" validate:"required"`
	DueTime       string `json:"due_time" validate:"required"` // HH:MM local
	WindowMinutes int    `json:"window_minutes" validate:"gte=0"`
	Criticality   int    `json:"criticality" validate:"gte=1,lte=5"`
	Timezone      string `json:"timezone,omitempty"`
}

// TaskOccurrence is a materialized task with its urgency at creation time
type TaskOccurrence struct {
	Task           models.Task          `json:"task"`
	InitialUrgency models.UrgencyResult `json:"initial_urgency"`
}

// MaterializeShifts creates one open or unassigned shift per occurrence in [from, to]
func MaterializeShifts(tpl ShiftTemplate, from, to time.Time) ([]models.Shift, error) {
	if err := validate.Struct(tpl); err != nil {
		return nil, fmt.Errorf("invalid shift template: %w", err)
	}
	starts, err := occurrences(tpl.RRule, tpl.StartTime, tpl.Timezone, from, to)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(tpl.DurationMinutes) * time.Minute
	shifts := make([]models.Shift, 0, len(starts))
	for _, start := range starts {
		shifts = append(shifts, models.Shift{
			ID:             uuid.NewString(),
			Start:          start,
			End:            start.Add(duration),
			DepartmentID:   tpl.DepartmentID,
			LocationID:     tpl.LocationID,
			AreaID:         tpl.AreaID,
			PositionID:     tpl.PositionID,
			RequiredSkills: tpl.RequiredSkills,
			IsOpen:         tpl.Open,
		})
	}
	return shifts, nil
}

// MaterializeTasks creates one pending task per occurrence in [from, to] and
// snapshots its urgency at now
func MaterializeTasks(tpl TaskTemplate, from, to, now time.Time) ([]TaskOccurrence, error) {
	if err := validate.Struct(tpl); err != nil {
		return nil, fmt.Errorf("invalid task template: %w", err)
	}
	dues, err := occurrences(tpl.RRule, tpl.DueTime, tpl.Timezone, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]TaskOccurrence, 0, len(dues))
	for _, due := range dues {
		task := models.Task{
			ID:          uuid.NewString(),
			Title:       tpl.Title,
			DueAt:       due,
			Criticality: tpl.Criticality,
			Status:      models.TaskPending,
		}
		if tpl.WindowMinutes > 0 {
			windowStart := due.Add(-time.Duration(tpl.WindowMinutes) * time.Minute)
			windowEnd := due
			task.WindowStart = &windowStart
			task.WindowEnd = &windowEnd
		}
		out = append(out, TaskOccurrence{Task: task, InitialUrgency: urgency.Evaluate(task, now)})
	}
	return out, nil
}

// occurrences expands rule anchored at clock on the local day of from
func occurrences(rule, clock, timezone string, from, to time.Time) ([]time.Time, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}

	at, err := time.Parse(timewindow.ClockLayout, clock)
	if err != nil {
		return nil, fmt.Errorf("invalid clock time %q: %w", clock, err)
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule %q: %w", rule, err)
	}

	day := timewindow.StartOfDay(from, loc)
	r.DTStart(time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, loc))

	// Iterate rather than Between so an unbounded rule cannot run away
	var out []time.Time
	next := r.Iterator()
	for {
		t, ok := next()
		if !ok || t.After(to) {
			break
		}
		if t.Before(from) {
			continue
		}
		if len(out) == MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		out = append(out, t)
	}
	return out, nil
}
