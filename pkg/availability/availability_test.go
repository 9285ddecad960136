package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

func weekdayMap() models.AvailabilityMap {
	return models.AvailabilityMap{
		models.Monday: {{"06:00", "12:00"}, {"14:00", "22:00"}},
		models.Friday: {},
	}
}

func TestIsWithinAvailability(t *testing.T) {
	avail := weekdayMap()

	assert.True(t, IsWithinAvailability(avail, models.Monday, "06:00", "12:00"), "exact slot")
	assert.True(t, IsWithinAvailability(avail, models.Monday, "15:00", "21:30"), "inside second slot")
	assert.False(t, IsWithinAvailability(avail, models.Monday, "11:00", "15:00"), "straddles both slots")
	assert.False(t, IsWithinAvailability(avail, models.Monday, "05:30", "08:00"), "starts early")
}

func TestIsWithinAvailability_UnconstrainedDays(t *testing.T) {
	avail := weekdayMap()

	assert.True(t, IsWithinAvailability(avail, models.Tuesday, "00:00", "23:59"), "absent day")
	assert.True(t, IsWithinAvailability(avail, models.Friday, "00:00", "23:59"), "empty day")
	assert.True(t, IsWithinAvailability(nil, models.Monday, "03:00", "04:00"), "nil map")
}

func TestIsWithinAvailability_MidnightCrossing(t *testing.T) {
	day := func(slots ...models.TimeRange) models.AvailabilityMap {
		return models.AvailabilityMap{models.Saturday: slots}
	}

	assert.True(t, IsWithinAvailability(day(models.TimeRange{"00:00", "23:59"}), models.Saturday, "22:00", "06:00"), "full day")
	assert.True(t, IsWithinAvailability(day(models.TimeRange{"08:00", "16:00"}), models.Saturday, "22:00", "06:00"),
		"only clock times are compared")
	assert.False(t, IsWithinAvailability(day(models.TimeRange{"23:00", "23:59"}), models.Saturday, "22:00", "06:00"), "slot opens late")
	assert.False(t, IsWithinAvailability(day(models.TimeRange{"20:00", "05:00"}), models.Saturday, "22:00", "06:00"), "end clock past slot end")
}

func TestCheck(t *testing.T) {
	avail := weekdayMap()
	monday := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	constrained, within := Check(avail, monday.Add(15*time.Hour), monday.Add(20*time.Hour), time.UTC)
	assert.True(t, constrained)
	assert.True(t, within)

	constrained, within = Check(avail, monday.Add(10*time.Hour), monday.Add(16*time.Hour), time.UTC)
	assert.True(t, constrained)
	assert.False(t, within)

	tuesday := monday.AddDate(0, 0, 1)
	constrained, within = Check(avail, tuesday, tuesday.Add(8*time.Hour), time.UTC)
	assert.False(t, constrained)
	assert.True(t, within)
}
