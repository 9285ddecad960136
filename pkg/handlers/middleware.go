package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/metrics"
)

const (
	identityKey = "identity"
	apiKeyKey   = "apiKey"
)

// Identity is the authenticated caller
type Identity struct {
	UserID string
	OrgID  string
	Role   auth.Role
	Via    string // "token" or "api_key"
}

func currentIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		return v.(Identity)
	}
	return Identity{}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// RequestLogger logs one line per request through zap
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}

// Recovery turns handler panics into a logged 500
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Handler panicked",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// RequestMetrics counts requests per route template
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if claims.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}

		c.Set(identityKey, Identity{UserID: claims.UserID, OrgID: claims.OrgID, Role: claims.Role, Via: "token"})
		c.Next()
	}
}

// Authenticate accepts either a JWT bearer token or an HMAC API key. API keys
// act as a manager of the organization they were issued for.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearer(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// JWTs have three dot-separated segments, API keys two
		if strings.Count(credential, ".") == 2 {
			claims, err := h.Auth.VerifyToken(credential)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			c.Set(identityKey, Identity{UserID: claims.UserID, OrgID: claims.OrgID, Role: claims.Role, Via: "token"})
			c.Next()
			return
		}

		subject, err := h.Auth.VerifyHMACKey(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}
		orgID, name, err := auth.SplitKeySubject(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key subject"})
			return
		}

		// Fetch or create API key record to track usage
		apiKey, err := auth.ResolveAPIKey(h.DB, credential, orgID, name)
		if errors.Is(err, auth.ErrKeyRevoked) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}

		used, err := h.requestsToday(apiKey.ID)
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		if used >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "daily rate limit exceeded",
				"rate_limit": apiKey.RateLimit,
			})
			return
		}
		if err := h.recordRequest(apiKey.ID); err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(apiKeyKey, apiKey)
		c.Set(identityKey, Identity{UserID: "key:" + name, OrgID: orgID, Role: auth.RoleManager, Via: "api_key"})
		c.Next()
	}
}

// RequireRole rejects callers whose role is not allowed. Admins always pass.
func RequireRole(allowed ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := currentIdentity(c)
		if !auth.HasRole(id.Role, allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
