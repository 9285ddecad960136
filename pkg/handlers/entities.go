package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/urgency"
)

// listEntities serves GET /api/<entity>
func listEntities[T any](h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := database.List[T](c.Request.Context(), h.Store, currentIdentity(c).OrgID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	}
}

// getEntity serves GET /api/<entity>/:id
func getEntity[T any](h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := database.Get[T](c.Request.Context(), h.Store, currentIdentity(c).OrgID, c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// createEntity serves POST /api/<entity>; the caller's organization always wins
func createEntity[T any, PT interface {
	*T
	database.OrgScoped
}](h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		row := PT(new(T))
		if !bindJSON(c, row) {
			return
		}
		row.SetOrgID(currentIdentity(c).OrgID)

		if err := database.Create[T](c.Request.Context(), h.Store, row); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, row)
	}
}

// CreateEmployee stores an employee and, when given, their login password
func (h *Handler) CreateEmployee(c *gin.Context) {
	var req struct {
		database.Employee
		Password string `json:"password" validate:"omitempty,min=8"`
	}
	if !bindJSON(c, &req) {
		return
	}

	emp := req.Employee
	emp.OrgID = currentIdentity(c).OrgID
	if emp.Role == "" {
		emp.Role = string(auth.RoleEmployee)
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.respondError(c, err)
			return
		}
		emp.PasswordHash = hash
	}

	if err := database.Create(c.Request.Context(), h.Store, &emp); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, emp)
}

// CreateTask stores a task with its initial urgency snapshot
func (h *Handler) CreateTask(c *gin.Context) {
	var task database.Task
	if !bindJSON(c, &task) {
		return
	}
	task.OrgID = currentIdentity(c).OrgID
	if task.Status == "" {
		task.Status = models.TaskPending
	}

	initial := urgency.Evaluate(task.ToModel(), h.Now())
	task.InitialUrgencyScore = initial.Score
	task.InitialUrgencyLevel = string(initial.Level)

	if err := database.Create(c.Request.Context(), h.Store, &task); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTaskStatus moves a task to done, skipped, deferred or back to pending
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	var req struct {
		Status models.TaskStatus `json:"status" validate:"required,oneof=pending done skipped deferred"`
	}
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.Store.UpdateTaskStatus(c.Request.Context(), currentIdentity(c).OrgID, c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ArchiveShift soft-deletes a shift
func (h *Handler) ArchiveShift(c *gin.Context) {
	if err := h.Store.ArchiveShift(c.Request.Context(), currentIdentity(c).OrgID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift archived"})
}

// GetLaborRules returns the organization's labor rules
func (h *Handler) GetLaborRules(c *gin.Context) {
	lr, err := h.Store.GetLaborRules(c.Request.Context(), currentIdentity(c).OrgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

// PutLaborRules replaces the organization's labor rules
func (h *Handler) PutLaborRules(c *gin.Context) {
	var lr database.LaborRule
	if !bindJSON(c, &lr) {
		return
	}
	lr.OrgID = currentIdentity(c).OrgID
	lr.UpdatedAt = time.Now()

	if err := h.Store.SaveLaborRules(c.Request.Context(), &lr); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}
