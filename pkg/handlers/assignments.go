package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/metrics"
	"github.com/shiftdesk/workforce-api/pkg/models"
)

// EvaluateAssignment runs the rules engine on a proposed change without persisting it
func (h *Handler) EvaluateAssignment(c *gin.Context) {
	var change models.ShiftChange
	if !bindJSON(c, &change) {
		return
	}

	id := currentIdentity(c)
	if !auth.HasRole(id.Role, auth.RoleManager) && change.EmployeeID != id.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "employees may only evaluate their own assignments"})
		return
	}

	result := h.engine(id.OrgID).Evaluate(c.Request.Context(), change)
	h.RecordUsage(c, 1, 1)
	c.JSON(http.StatusOK, result)
}

// CreateAssignment evaluates then commits an active assignment. Warnings are
// returned alongside the assignment; blocks reject it with 409.
func (h *Handler) CreateAssignment(c *gin.Context) {
	var req struct {
		ShiftID    string `json:"shift_id" validate:"required"`
		EmployeeID string `json:"employee_id" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	id := currentIdentity(c)
	shift, err := database.Get[database.Shift](ctx, h.Store, id.OrgID, req.ShiftID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result := h.engine(id.OrgID).Evaluate(ctx, shift.ToModel().ChangeFor(req.EmployeeID))
	h.RecordUsage(c, 1, 1)
	if !result.Eligible {
		c.JSON(http.StatusConflict, gin.H{"error": "assignment blocked", "result": result})
		return
	}

	assignment, err := h.Store.AssignShift(ctx, shift, req.EmployeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.AssignmentsCommittedTotal.WithLabelValues("direct").Inc()
	h.Logger.Info("Shift assigned",
		zap.String("shift_id", shift.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.Strings("warnings", result.Warnings))

	c.JSON(http.StatusCreated, gin.H{"assignment": assignment, "result": result})
}

// ClaimShift records a waiting claim. Employees claim for themselves; managers
// may claim on behalf of an employee.
func (h *Handler) ClaimShift(c *gin.Context) {
	var req struct {
		EmployeeID string `json:"employee_id"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	id := currentIdentity(c)
	employeeID := id.UserID
	if req.EmployeeID != "" && req.EmployeeID != id.UserID {
		if !auth.HasRole(id.Role, auth.RoleManager) {
			c.JSON(http.StatusForbidden, gin.H{"error": "employees may only claim for themselves"})
			return
		}
		employeeID = req.EmployeeID
	}

	ctx := c.Request.Context()
	shift, err := database.Get[database.Shift](ctx, h.Store, id.OrgID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !shift.IsOpen {
		h.respondError(c, database.ErrShiftNotOpen)
		return
	}

	result := h.engine(id.OrgID).Evaluate(ctx, shift.ToModel().ChangeFor(employeeID))
	if !result.Eligible {
		c.JSON(http.StatusConflict, gin.H{"error": "claim blocked", "result": result})
		return
	}

	claim, err := h.Store.ClaimShift(ctx, shift, employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": claim, "result": result})
}

// ApproveClaim re-evaluates the claimant against current state and commits
// the claim in one transaction
func (h *Handler) ApproveClaim(c *gin.Context) {
	ctx := c.Request.Context()
	id := currentIdentity(c)

	claim, err := h.Store.GetAssignment(ctx, id.OrgID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if claim.Status != models.StatusWaiting {
		h.respondError(c, database.ErrClaimNotWaiting)
		return
	}

	result := h.engine(id.OrgID).Evaluate(ctx, claim.Shift.ToModel().ChangeFor(claim.EmployeeID))
	if !result.Eligible {
		c.JSON(http.StatusConflict, gin.H{"error": "assignment blocked", "result": result})
		return
	}

	approved, err := h.Store.ApproveClaim(ctx, claim)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.AssignmentsCommittedTotal.WithLabelValues("claim").Inc()
	h.Logger.Info("Claim approved",
		zap.String("assignment_id", approved.ID),
		zap.String("shift_id", approved.ShiftID),
		zap.String("employee_id", approved.EmployeeID))

	c.JSON(http.StatusOK, gin.H{"assignment": approved, "result": result})
}

// CancelAssignment cancels an assignment or claim. Employees may only cancel
// their own waiting claims.
func (h *Handler) CancelAssignment(c *gin.Context) {
	ctx := c.Request.Context()
	id := currentIdentity(c)

	a, err := h.Store.GetAssignment(ctx, id.OrgID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !auth.HasRole(id.Role, auth.RoleManager) &&
		(a.EmployeeID != id.UserID || a.Status != models.StatusWaiting) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	cancelled, err := h.Store.CancelAssignment(ctx, a)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": cancelled})
}

// SuggestCandidates ranks the department's employees for a shift
func (h *Handler) SuggestCandidates(c *gin.Context) {
	ctx := c.Request.Context()
	id := currentIdentity(c)

	shift, err := database.Get[database.Shift](ctx, h.Store, id.OrgID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	departmentID := shift.DepartmentID
	if c.Query("scope") == "org" {
		departmentID = ""
	}
	rows, err := h.Store.ListEmployees(ctx, id.OrgID, departmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	employees := make([]models.Employee, len(rows))
	for i, r := range rows {
		employees[i] = r.ToModel()
	}

	suggestion := h.scheduler(id.OrgID).Suggest(ctx, shift.ToModel(), employees)
	h.RecordUsage(c, 1, len(employees))
	c.JSON(http.StatusOK, suggestion)
}
