package availability

import (
	"time"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/timewindow"
)

// IsWithinAvailability reports whether [rangeStart, rangeEnd] fits inside one of the
// day's permitted ranges. A day with no ranges is unconstrained.
//
// Times are compared as fixed-width HH:MM strings. A range that crosses
// midnight is judged on its start day by clock times alone: it matches any
// slot starting at or before its start whose end clock is not before its
// next-day end clock, even a slot that closes before the range begins.
func IsWithinAvailability(availability models.AvailabilityMap, weekday models.WeekdayKey, rangeStart, rangeEnd string) bool {
	slots := availability[weekday]
	if len(slots) == 0 {
		return true
	}
	for _, slot := range slots {
		if slot.Start() <= rangeStart && rangeEnd <= slot.End() {
			return true
		}
	}
	return false
}

// IsConstrained reports whether the day has at least one availability range
func IsConstrained(availability models.AvailabilityMap, weekday models.WeekdayKey) bool {
	return len(availability[weekday]) > 0
}

// Check resolves the local weekday and clock times of a shift and matches them.
// It returns constrained=false when the day carries no ranges.
func Check(availability models.AvailabilityMap, start, end time.Time, loc *time.Location) (constrained, within bool) {
	weekday := timewindow.WeekdayKey(start, loc)
	if !IsConstrained(availability, weekday) {
		return false, true
	}
	return true, IsWithinAvailability(availability, weekday,
		timewindow.ClockString(start, loc), timewindow.ClockString(end, loc))
}
