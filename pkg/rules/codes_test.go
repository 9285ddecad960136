package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	assert.Equal(t, "REST_VIOLATION_8H", RestViolation(decimal.NewFromInt(8)))
	assert.Equal(t, "REST_VIOLATION_10.5H", RestViolation(decimal.NewFromFloat(10.5)))
	assert.Equal(t, "OVERTIME_FORECAST_5H", OvertimeForecast(decimal.NewFromInt(5)))
	assert.Equal(t, "DAILY_MAX_EXCEEDED_0.25H", DailyMaxExceeded(decimal.NewFromFloat(0.25)))
	assert.Equal(t, "LACK_SKILL_a_b", LackSkill([]string{"a", "b"}))
}

func TestFamily(t *testing.T) {
	tests := map[string]string{
		"LACK_SKILL_forklift_first_aid": "LACK_SKILL",
		"REST_VIOLATION_8H":             "REST_VIOLATION",
		"OVERTIME_FORECAST_5H":          "OVERTIME_FORECAST",
		"DAILY_MAX_EXCEEDED_2.5H":       "DAILY_MAX_EXCEEDED",
		CodeOverlap:                     CodeOverlap,
		CodeOutsideAvailability:         CodeOutsideAvailability,
	}
	for code, want := range tests {
		assert.Equal(t, want, Family(code), code)
	}
}
