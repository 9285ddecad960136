package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
)

// orgKeys scopes API key queries to the calling admin's organization
func (h *Handler) orgKeys(c *gin.Context) *gorm.DB {
	return h.DB.WithContext(c.Request.Context()).
		Model(&database.APIKey{}).
		Where("org_id = ?", currentIdentity(c).OrgID)
}

// findOrgKey loads one of the organization's keys by id
func (h *Handler) findOrgKey(c *gin.Context) (*database.APIKey, bool) {
	var key database.APIKey
	err := h.orgKeys(c).Where("id = ?", c.Param("id")).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = database.ErrNotFound
		}
		h.respondError(c, err)
		return nil, false
	}
	return &key, true
}

// GenerateKey issues an HMAC API key for the admin's organization
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" validate:"required,excludesall=.:"`
		RateLimit int    `json:"rate_limit" validate:"gte=0"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = auth.DefaultRateLimit
	}

	orgID := currentIdentity(c).OrgID
	key := h.Auth.GenerateHMACKey(auth.KeySubject(orgID, req.Name))

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		OrgID:      orgID,
		KeyPreview: key[:3] + "..." + key[len(key)-4:],
		RateLimit:  req.RateLimit,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&apiKey).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("API key issued",
		zap.String("org_id", orgID),
		zap.String("name", req.Name),
		zap.Uint("key_id", apiKey.ID))

	// The full key is only ever returned here
	c.JSON(http.StatusOK, gin.H{
		"id":         apiKey.ID,
		"name":       apiKey.Name,
		"org_id":     orgID,
		"rate_limit": apiKey.RateLimit,
		"key":        key,
	})
}

// ListKeys returns the organization's API keys, revoked ones included
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.orgKeys(c).Order("id").Find(&keys).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey marks a key revoked. The record is kept so the still-valid
// signature cannot re-register it.
func (h *Handler) RevokeKey(c *gin.Context) {
	key, ok := h.findOrgKey(c)
	if !ok {
		return
	}
	if key.RevokedAt == nil {
		now := h.Now()
		if err := h.DB.WithContext(c.Request.Context()).Model(key).Update("revoked_at", now).Error; err != nil {
			h.respondError(c, err)
			return
		}
		h.Logger.Info("API key revoked", zap.Uint("key_id", key.ID), zap.String("name", key.Name))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit changes a key's daily request limit. The limit may come in
// the JSON body or the rate_limit query parameter.
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}
	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit must be positive"})
		return
	}

	key, ok := h.findOrgKey(c)
	if !ok {
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(key).Update("rate_limit", req.RateLimit).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": key.ID, "rate_limit": req.RateLimit})
}

// GetUsage returns the last 30 days of usage for one of the organization's keys
func (h *Handler) GetUsage(c *gin.Context) {
	key, ok := h.findOrgKey(c)
	if !ok {
		return
	}
	usage, err := h.usageHistory(key.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key_name":       key.Name,
		"rate_limit":     key.RateLimit,
		"requests_today": h.todayCount(usage),
		"usage":          usage,
	})
}
