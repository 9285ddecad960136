package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/metrics"
	"github.com/shiftdesk/workforce-api/pkg/rules"
	"github.com/shiftdesk/workforce-api/pkg/scheduler"
)

var validate = validator.New()

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Store    *database.Store
	Auth     *auth.Authenticator
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// New creates a Handler over an open database
func New(db *gorm.DB, authn *auth.Authenticator, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:       db,
		Store:    database.NewStore(db),
		Auth:     authn,
		Location: loc,
		Logger:   logger,
		Now:      time.Now,
	}
}

// engine builds an instrumented rules engine that only sees orgID's employees
func (h *Handler) engine(orgID string) metrics.Evaluator {
	return metrics.Instrument(rules.NewEngine(h.Store.ForOrg(orgID), h.Logger.Named("rules"), h.Location))
}

func (h *Handler) scheduler(orgID string) *scheduler.Scheduler {
	return scheduler.NewScheduler(h.engine(orgID), h.Logger.Named("scheduler"))
}

// bindJSON decodes the body and runs the validate tags; it writes the 400 itself
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// respondError maps store and auth errors onto status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrShiftAlreadyAssigned),
		errors.Is(err, database.ErrShiftNotOpen),
		errors.Is(err, database.ErrClaimNotWaiting):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseTime reads an optional RFC 3339 query parameter
func parseTime(c *gin.Context, key string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be an RFC 3339 timestamp"})
		return time.Time{}, false
	}
	return t, true
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username, user.OrgID, auth.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// EmployeeLogin issues a token for an employee, manager or org admin
func (h *Handler) EmployeeLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	emp, err := h.Store.FindEmployeeByEmail(c.Request.Context(), req.Email)
	if err != nil || emp.PasswordHash == "" || !auth.CheckPasswordHash(req.Password, emp.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	role := auth.Role(emp.Role)
	if !role.Valid() {
		role = auth.RoleEmployee
	}
	token, err := h.Auth.CreateToken(emp.ID, emp.OrgID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "role": role})
}
