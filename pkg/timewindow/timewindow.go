// Package timewindow holds the date and time arithmetic shared by the
// rules engine, the conflict detector and the urgency scorer.
//
// All "local clock" helpers take an explicit *time.Location. A nil location
// means time.Local.
package timewindow

import (
	"time"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

// ClockLayout is the fixed-width HH:MM form used for availability matching
const ClockLayout = "15:04"

// HoursBetween returns the signed number of hours from `from` to `to`
func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

// MinutesUntil returns the signed number of minutes from now until t
func MinutesUntil(t, now time.Time) float64 {
	return float64(t.Sub(now).Milliseconds()) / 60000
}

// Overlaps reports whether [newStart, newEnd] collides with [existStart, existEnd].
// A new range starting exactly when the existing one ends, or ending exactly when
// it starts, does not collide.
func Overlaps(newStart, newEnd, existStart, existEnd time.Time) bool {
	startsInside := !newStart.Before(existStart) && newStart.Before(existEnd)
	endsInside := newEnd.After(existStart) && !newEnd.After(existEnd)
	covers := !newStart.After(existStart) && !newEnd.Before(existEnd)
	return startsInside || endsInside || covers
}

// In converts t to loc, treating a nil loc as time.Local
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc)
}

// WeekdayKey returns the availability key for the local day of t
func WeekdayKey(t time.Time, loc *time.Location) models.WeekdayKey {
	switch In(t, loc).Weekday() {
	case time.Monday:
		return models.Monday
	case time.Tuesday:
		return models.Tuesday
	case time.Wednesday:
		return models.Wednesday
	case time.Thursday:
		return models.Thursday
	case time.Friday:
		return models.Friday
	case time.Saturday:
		return models.Saturday
	default:
		return models.Sunday
	}
}

// ClockString formats the local clock time of t as HH:MM
func ClockString(t time.Time, loc *time.Location) string {
	return In(t, loc).Format(ClockLayout)
}

// StartOfDay returns local midnight of the day containing t
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := In(t, loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// StartOfISOWeek returns local midnight of the Monday starting the week containing t
func StartOfISOWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Window is a half-open [Start, End) range of instants
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow returns the local calendar day containing t
func DayWindow(t time.Time, loc *time.Location) Window {
	start := StartOfDay(t, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekWindow returns the Monday-start local week containing t
func WeekWindow(t time.Time, loc *time.Location) Window {
	start := StartOfISOWeek(t, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}
