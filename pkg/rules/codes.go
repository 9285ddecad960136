package rules

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Block codes make an assignment ineligible
const (
	CodeEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
	CodeOverlap          = "OVERLAP_EXISTING_SHIFT"
	CodeEngineError      = "RULES_ENGINE_ERROR"
	prefixLackSkill      = "LACK_SKILL_"
	prefixRestViolation  = "REST_VIOLATION_"
)

// Warning codes are advisory only
const (
	CodeOutsideAvailability = "OUTSIDE_AVAILABILITY_WINDOW"
	prefixOvertimeForecast  = "OVERTIME_FORECAST_"
	prefixDailyMaxExceeded  = "DAILY_MAX_EXCEEDED_"
)

// LackSkill names every missing skill in a single block
func LackSkill(missing []string) string {
	return prefixLackSkill + strings.Join(missing, "_")
}

// RestViolation embeds the configured minimum rest
func RestViolation(minRestHours decimal.Decimal) string {
	return prefixRestViolation + hoursSuffix(minRestHours)
}

// OvertimeForecast embeds the projected hours above the weekly cap
func OvertimeForecast(overtime decimal.Decimal) string {
	return prefixOvertimeForecast + hoursSuffix(overtime)
}

// DailyMaxExceeded embeds the projected hours above the daily cap
func DailyMaxExceeded(excess decimal.Decimal) string {
	return prefixDailyMaxExceeded + hoursSuffix(excess)
}

// hoursSuffix renders the shortest decimal form: 8 -> "8H", 2.5 -> "2.5H"
func hoursSuffix(hours decimal.Decimal) string {
	return hours.String() + "H"
}

// Family strips the variable suffix from a code: "LACK_SKILL_forklift" -> "LACK_SKILL"
func Family(code string) string {
	for _, prefix := range []string{prefixLackSkill, prefixRestViolation, prefixOvertimeForecast, prefixDailyMaxExceeded} {
		if strings.HasPrefix(code, prefix) {
			return strings.TrimSuffix(prefix, "_")
		}
	}
	return code
}
