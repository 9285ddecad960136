package conflicts

import (
	"fmt"
	"sort"
	"time"

	"github.com/shiftdesk/workforce-api/pkg/availability"
	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/timewindow"
)

const (
	// MinRestHours is the baseline gap between two shifts of one employee.
	// It is independent of any organization's configured labor rules.
	MinRestHours = 8.0

	// MaxScheduledHours is the total above which an employee's schedule is flagged
	MaxScheduledHours = 40.0
)

// Detect finds overlaps, short rests, overtime and availability violations per employee.
// Shifts without an employee are ignored. Every employee with at least one shift gets
// an entry, possibly empty. Local clock times are resolved in loc.
func Detect(shifts []models.Shift, availabilityByEmployee map[string]models.AvailabilityMap, loc *time.Location) map[string][]models.Conflict {
	byEmployee := make(map[string][]models.Shift)
	for _, shift := range shifts {
		if shift.EmployeeID == "" {
			continue
		}
		byEmployee[shift.EmployeeID] = append(byEmployee[shift.EmployeeID], shift)
	}

	result := make(map[string][]models.Conflict, len(byEmployee))
	for employeeID, employeeShifts := range byEmployee {
		result[employeeID] = detectForEmployee(employeeShifts, availabilityByEmployee[employeeID], loc)
	}
	return result
}

func detectForEmployee(shifts []models.Shift, avail models.AvailabilityMap, loc *time.Location) []models.Conflict {
	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].Start.Before(shifts[j].Start)
	})

	conflicts := []models.Conflict{}
	for i := 0; i+1 < len(shifts); i++ {
		current, next := shifts[i], shifts[i+1]

		if current.End.After(next.Start) {
			conflicts = append(conflicts, models.Conflict{
				Kind: models.ConflictOverlap,
				Message: fmt.Sprintf("Shift %s overlaps with shift %s",
					describe(current, loc), describe(next, loc)),
				ShiftIDs: []string{current.ID, next.ID},
			})
			continue
		}

		if rest := timewindow.HoursBetween(current.End, next.Start); rest < MinRestHours {
			conflicts = append(conflicts, models.Conflict{
				Kind: models.ConflictRestViolation,
				Message: fmt.Sprintf("Only %.1f hours of rest between %s and %s (minimum %.0f)",
					rest, describe(current, loc), describe(next, loc), MinRestHours),
				ShiftIDs: []string{current.ID, next.ID},
			})
		}
	}

	var total float64
	ids := make([]string, 0, len(shifts))
	for _, shift := range shifts {
		total += shift.Hours()
		ids = append(ids, shift.ID)
	}
	if total > MaxScheduledHours {
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictOvertime,
			Message:  fmt.Sprintf("Total scheduled hours %.1f exceed %.0f", total, MaxScheduledHours),
			ShiftIDs: ids,
		})
	}

	if avail == nil {
		return conflicts
	}
	for _, shift := range shifts {
		constrained, within := availability.Check(avail, shift.Start, shift.End, loc)
		if constrained && !within {
			conflicts = append(conflicts, models.Conflict{
				Kind: models.ConflictAvailability,
				Message: fmt.Sprintf("Shift %s is outside availability on %s",
					describe(shift, loc), timewindow.WeekdayKey(shift.Start, loc)),
				ShiftIDs: []string{shift.ID},
			})
		}
	}
	return conflicts
}

func describe(shift models.Shift, loc *time.Location) string {
	start := timewindow.In(shift.Start, loc)
	return fmt.Sprintf("%s %s-%s", start.Format("2006-01-02"),
		timewindow.ClockString(shift.Start, loc), timewindow.ClockString(shift.End, loc))
}
