package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

var validate = validator.New()

// rosterFile is a schedule snapshot for the conflict detector
type rosterFile struct {
	Timezone     string                         `yaml:"timezone" validate:"omitempty,timezone"`
	Shifts       []rosterShift                  `yaml:"shifts" validate:"dive"`
	Availability map[string]map[string][]string `yaml:"availability,omitempty"`
}

type rosterShift struct {
	ID         string    `yaml:"id" validate:"required"`
	EmployeeID string    `yaml:"employee" validate:"required"`
	Start      time.Time `yaml:"start" validate:"required"`
	End        time.Time `yaml:"end" validate:"required,gtfield=Start"`
}

// tasksFile is a task snapshot for the urgency scorer
type tasksFile struct {
	Now   *time.Time  `yaml:"now,omitempty"`
	Tasks []taskEntry `yaml:"tasks" validate:"dive"`
}

type taskEntry struct {
	ID          string     `yaml:"id" validate:"required"`
	Title       string     `yaml:"title"`
	DueAt       time.Time  `yaml:"due_at" validate:"required"`
	WindowStart *time.Time `yaml:"window_start,omitempty"`
	WindowEnd   *time.Time `yaml:"window_end,omitempty"`
	Criticality int        `yaml:"criticality" validate:"gte=0,lte=10"`
	Status      string     `yaml:"status" validate:"omitempty,oneof=pending done skipped deferred"`
}

// loadYAML reads, decodes and validates a snapshot file
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid %s: %w", path, err)
	}
	return nil
}

func (r rosterFile) shifts() []models.Shift {
	shifts := make([]models.Shift, len(r.Shifts))
	for i, s := range r.Shifts {
		shifts[i] = models.Shift{ID: s.ID, EmployeeID: s.EmployeeID, Start: s.Start, End: s.End}
	}
	return shifts
}

// availability converts "HH:MM-HH:MM" ranges keyed by weekday name
func (r rosterFile) availability() (map[string]models.AvailabilityMap, error) {
	if len(r.Availability) == 0 {
		return nil, nil
	}
	out := make(map[string]models.AvailabilityMap, len(r.Availability))
	for employeeID, days := range r.Availability {
		avail := make(models.AvailabilityMap, len(days))
		for day, ranges := range days {
			if !validWeekday(day) {
				return nil, fmt.Errorf("employee %s: unknown weekday %q", employeeID, day)
			}
			parsed := make([]models.TimeRange, 0, len(ranges))
			for _, raw := range ranges {
				start, end, ok := strings.Cut(raw, "-")
				if !ok || len(start) != 5 || len(end) != 5 {
					return nil, fmt.Errorf("employee %s: bad range %q, want HH:MM-HH:MM", employeeID, raw)
				}
				parsed = append(parsed, models.TimeRange{start, end})
			}
			avail[models.WeekdayKey(day)] = parsed
		}
		out[employeeID] = avail
	}
	return out, nil
}

func validWeekday(day string) bool {
	for _, k := range models.WeekdayKeys {
		if string(k) == day {
			return true
		}
	}
	return false
}

func (t tasksFile) tasks() []models.Task {
	tasks := make([]models.Task, len(t.Tasks))
	for i, e := range t.Tasks {
		tasks[i] = models.Task{
			ID:          e.ID,
			Title:       e.Title,
			DueAt:       e.DueAt,
			WindowStart: e.WindowStart,
			WindowEnd:   e.WindowEnd,
			Criticality: e.Criticality,
			Status:      models.TaskStatus(e.Status),
		}
	}
	return tasks
}
