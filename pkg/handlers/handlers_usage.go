package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiftdesk/workforce-api/pkg/database"
)

const usageDateLayout = "2006-01-02"

// RecordUsage adds the shifts and employees a request processed to the
// key's daily totals. The request itself is counted by Authenticate.
func (h *Handler) RecordUsage(c *gin.Context, shiftCount, employeeCount int) {
	apiKeyRaw, exists := c.Get(apiKeyKey)
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	if err := h.bumpUsage(apiKey.ID, 0, shiftCount, employeeCount); err != nil {
		h.Logger.Warn("Could not record usage", zap.Uint("key_id", apiKey.ID), zap.Error(err))
	}
}

// recordRequest counts one authenticated request against the key's day
func (h *Handler) recordRequest(keyID uint) error {
	return h.bumpUsage(keyID, 1, 0, 0)
}

// bumpUsage upserts today's usage row in a single query (supported by both
// Postgres and SQLite)
func (h *Handler) bumpUsage(keyID uint, requests, shiftCount, employeeCount int) error {
	return h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", requests),
			"total_shifts":    gorm.Expr("total_shifts + ?", shiftCount),
			"total_employees": gorm.Expr("total_employees + ?", employeeCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:          keyID,
		Date:           h.Now().Format(usageDateLayout),
		RequestCount:   requests,
		TotalShifts:    shiftCount,
		TotalEmployees: employeeCount,
	}).Error
}

// requestsToday counts the key's recorded requests for the current day
func (h *Handler) requestsToday(keyID uint) (int, error) {
	var usage database.APIUsage
	err := h.DB.Where("key_id = ? AND date = ?", keyID, h.Now().Format(usageDateLayout)).
		Limit(1).Find(&usage).Error
	return usage.RequestCount, err
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get(apiKeyKey)
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "usage is tracked for API keys only"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	usage, err := h.usageHistory(apiKey.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var totalRequests, totalShifts, totalEmployees int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalShifts += int64(u.TotalShifts)
		totalEmployees += int64(u.TotalEmployees)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":       apiKey.Name,
		"org_id":         apiKey.OrgID,
		"rate_limit":     apiKey.RateLimit,
		"requests_today": h.todayCount(usage),
		"usage_history":  usage,
		"totals": gin.H{
			"requests":  totalRequests,
			"shifts":    totalShifts,
			"employees": totalEmployees,
		},
	})
}

// usageHistory returns the last 30 days of usage, newest first
func (h *Handler) usageHistory(keyID uint) ([]database.APIUsage, error) {
	var usage []database.APIUsage
	err := h.DB.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}

func (h *Handler) todayCount(usage []database.APIUsage) int {
	today := h.Now().Format(usageDateLayout)
	for _, u := range usage {
		if u.Date == today {
			return u.RequestCount
		}
	}
	return 0
}
