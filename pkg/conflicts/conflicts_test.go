package conflicts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

// 2025-03-10 is a Monday
func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func shift(id, employee string, start, end time.Time) models.Shift {
	return models.Shift{ID: id, EmployeeID: employee, Start: start, End: end}
}

func kinds(conflicts []models.Conflict) []models.ConflictKind {
	out := make([]models.ConflictKind, len(conflicts))
	for i, c := range conflicts {
		out[i] = c.Kind
	}
	return out
}

func TestDetect_BackToBackIsRestViolationNotOverlap(t *testing.T) {
	shifts := []models.Shift{
		shift("a", "emp-1", at(10, 9), at(10, 17)),
		shift("b", "emp-1", at(10, 17), at(10, 21)),
	}

	result := Detect(shifts, nil, time.UTC)

	require.Len(t, result["emp-1"], 1)
	assert.Equal(t, models.ConflictRestViolation, result["emp-1"][0].Kind)
	assert.Equal(t, []string{"a", "b"}, result["emp-1"][0].ShiftIDs)
}

func TestDetect_OverlapOnly(t *testing.T) {
	shifts := []models.Shift{
		shift("b", "emp-1", at(10, 16), at(10, 20)),
		shift("a", "emp-1", at(10, 9), at(10, 17)),
	}

	result := Detect(shifts, nil, time.UTC)

	require.Len(t, result["emp-1"], 1)
	assert.Equal(t, models.ConflictOverlap, result["emp-1"][0].Kind)
	assert.Equal(t, []string{"a", "b"}, result["emp-1"][0].ShiftIDs, "ordered by start")
}

func TestDetect_EnoughRest(t *testing.T) {
	shifts := []models.Shift{
		shift("a", "emp-1", at(10, 9), at(10, 17)),
		shift("b", "emp-1", at(11, 1), at(11, 9)),
	}

	result := Detect(shifts, nil, time.UTC)

	assert.Empty(t, result["emp-1"])
	assert.Contains(t, result, "emp-1", "employees with shifts always get an entry")
}

func TestDetect_Overtime(t *testing.T) {
	var forty, fortyEight []models.Shift
	for day := 10; day < 16; day++ {
		s := shift(fmt.Sprintf("s%d", day), "emp-1", at(day, 9), at(day, 17))
		if day < 15 {
			forty = append(forty, s)
		}
		fortyEight = append(fortyEight, s)
	}

	assert.Empty(t, Detect(forty, nil, time.UTC)["emp-1"], "exactly 40h is allowed")

	conflicts := Detect(fortyEight, nil, time.UTC)["emp-1"]
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictOvertime, conflicts[0].Kind)
	assert.Len(t, conflicts[0].ShiftIDs, 6)
	assert.Contains(t, conflicts[0].Message, "48.0")
}

func TestDetect_Availability(t *testing.T) {
	avail := map[string]models.AvailabilityMap{
		"emp-1": {
			models.Monday:  {{"08:00", "18:00"}},
			models.Tuesday: {{"08:00", "12:00"}},
		},
	}
	shifts := []models.Shift{
		shift("mon", "emp-1", at(10, 9), at(10, 17)),
		shift("tue", "emp-1", at(11, 9), at(11, 17)),
		shift("wed", "emp-1", at(12, 9), at(12, 17)),
	}

	conflicts := Detect(shifts, avail, time.UTC)["emp-1"]

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictAvailability, conflicts[0].Kind)
	assert.Equal(t, []string{"tue"}, conflicts[0].ShiftIDs)
}

func TestDetect_Ordering(t *testing.T) {
	avail := map[string]models.AvailabilityMap{
		"emp-1": {models.Saturday: {{"06:00", "10:00"}}},
	}
	shifts := []models.Shift{
		shift("a", "emp-1", at(10, 0), at(10, 12)),
		shift("b", "emp-1", at(10, 11), at(10, 23)),
		shift("c", "emp-1", at(12, 0), at(12, 12)),
		shift("d", "emp-1", at(15, 8), at(15, 20)),
	}

	conflicts := Detect(shifts, avail, time.UTC)["emp-1"]

	assert.Equal(t, []models.ConflictKind{
		models.ConflictOverlap,
		models.ConflictOvertime,
		models.ConflictAvailability,
	}, kinds(conflicts))
}

func TestDetect_SeparatesEmployeesAndSkipsUnassigned(t *testing.T) {
	shifts := []models.Shift{
		shift("a", "emp-1", at(10, 9), at(10, 17)),
		shift("b", "emp-2", at(10, 9), at(10, 17)),
		shift("open", "", at(10, 9), at(10, 17)),
	}

	result := Detect(shifts, nil, time.UTC)

	assert.Len(t, result, 2)
	assert.Empty(t, result["emp-1"])
	assert.Empty(t, result["emp-2"])
}

func TestDetect_EmptyInput(t *testing.T) {
	assert.Empty(t, Detect(nil, nil, nil))
}
