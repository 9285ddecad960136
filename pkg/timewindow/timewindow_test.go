package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

func at(day, hour, min int) time.Time {
	return time.Date(2025, time.March, day, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		newStart time.Time
		newEnd   time.Time
		want     bool
	}{
		{"starts inside", at(10, 12, 0), at(10, 20, 0), true},
		{"ends inside", at(10, 6, 0), at(10, 10, 0), true},
		{"covers", at(10, 8, 0), at(10, 18, 0), true},
		{"inside", at(10, 10, 0), at(10, 11, 0), true},
		{"identical", at(10, 9, 0), at(10, 17, 0), true},
		{"starts at existing end", at(10, 17, 0), at(10, 21, 0), false},
		{"ends at existing start", at(10, 5, 0), at(10, 9, 0), false},
		{"disjoint", at(11, 9, 0), at(11, 17, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.newStart, tt.newEnd, at(10, 9, 0), at(10, 17, 0))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoursBetween(t *testing.T) {
	assert.Equal(t, 4.0, HoursBetween(at(10, 17, 0), at(10, 21, 0)))
	assert.Equal(t, -4.0, HoursBetween(at(10, 21, 0), at(10, 17, 0)))
	assert.Equal(t, 0.5, HoursBetween(at(10, 17, 0), at(10, 17, 30)))
}

func TestMinutesUntil(t *testing.T) {
	assert.Equal(t, 90.0, MinutesUntil(at(10, 10, 30), at(10, 9, 0)))
	assert.Equal(t, -30.0, MinutesUntil(at(10, 8, 30), at(10, 9, 0)))
}

func TestWeekdayKeyAndClock(t *testing.T) {
	// 2025-03-10 is a Monday
	assert.Equal(t, models.Monday, WeekdayKey(at(10, 9, 0), time.UTC))
	assert.Equal(t, models.Sunday, WeekdayKey(at(16, 9, 0), time.UTC))
	assert.Equal(t, "09:05", ClockString(at(10, 9, 5), time.UTC))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, models.Tuesday, WeekdayKey(at(10, 20, 0), tokyo))
	assert.Equal(t, "05:00", ClockString(at(10, 20, 0), tokyo))
}

func TestWeekWindow_MondayStart(t *testing.T) {
	w := WeekWindow(at(13, 15, 0), time.UTC)
	assert.Equal(t, at(10, 0, 0), w.Start)
	assert.Equal(t, at(17, 0, 0), w.End)

	sunday := WeekWindow(at(16, 23, 0), time.UTC)
	assert.Equal(t, at(10, 0, 0), sunday.Start)

	assert.True(t, w.Contains(at(10, 0, 0)))
	assert.False(t, w.Contains(at(17, 0, 0)))
}

func TestDayWindow(t *testing.T) {
	w := DayWindow(at(12, 15, 30), time.UTC)
	assert.Equal(t, at(12, 0, 0), w.Start)
	assert.Equal(t, at(13, 0, 0), w.End)
}
