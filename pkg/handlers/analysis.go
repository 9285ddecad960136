package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/workforce-api/pkg/conflicts"
	"github.com/shiftdesk/workforce-api/pkg/metrics"
	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/urgency"
)

// ListConflicts runs the conflict detector over the stored schedule in [from, to)
func (h *Handler) ListConflicts(c *gin.Context) {
	now := h.Now()
	from, ok := parseTime(c, "from", now.AddDate(0, 0, -7))
	if !ok {
		return
	}
	to, ok := parseTime(c, "to", from.AddDate(0, 0, 14))
	if !ok {
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
		return
	}

	id := currentIdentity(c)
	view, err := h.Store.LoadSchedule(c.Request.Context(), id.OrgID, from, to, c.Query("department_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	found := conflicts.Detect(view.Shifts, view.Availability, h.Location)
	metrics.ObserveConflicts(found)
	h.RecordUsage(c, len(view.Shifts), len(found))

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "conflicts": found})
}

// DetectConflicts runs the conflict detector over an inline schedule snapshot
func (h *Handler) DetectConflicts(c *gin.Context) {
	var req struct {
		Shifts       []models.Shift                    `json:"shifts" validate:"dive"`
		Availability map[string]models.AvailabilityMap `json:"availability"`
		Timezone     string                            `json:"timezone" validate:"omitempty,timezone"`
	}
	if !bindJSON(c, &req) {
		return
	}

	loc := h.Location
	if req.Timezone != "" {
		loc, _ = time.LoadLocation(req.Timezone)
	}

	found := conflicts.Detect(req.Shifts, req.Availability, loc)
	metrics.ObserveConflicts(found)
	h.RecordUsage(c, len(req.Shifts), len(found))

	c.JSON(http.StatusOK, gin.H{"conflicts": found})
}

// RankTasks scores the organization's stored tasks, most urgent first
func (h *Handler) RankTasks(c *gin.Context) {
	now, ok := parseTime(c, "now", h.Now())
	if !ok {
		return
	}

	id := currentIdentity(c)
	status := models.TaskStatus(c.Query("status"))
	if status == "" {
		status = models.TaskPending
	}
	rows, err := h.Store.ListTasks(c.Request.Context(), id.OrgID, status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	tasks := make([]models.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.ToModel()
	}
	// the store already filtered on the requested status
	ranked := urgency.RankAll(tasks, now)
	metrics.ObserveUrgency(ranked)

	c.JSON(http.StatusOK, gin.H{"now": now, "tasks": ranked})
}

// ScoreTasks scores inline tasks, most urgent first
func (h *Handler) ScoreTasks(c *gin.Context) {
	var req struct {
		Tasks []models.Task `json:"tasks" validate:"dive"`
		Now   *time.Time    `json:"now"`
	}
	if !bindJSON(c, &req) {
		return
	}

	fallback := h.Now()
	if req.Now != nil {
		fallback = *req.Now
	}
	now, ok := parseTime(c, "now", fallback)
	if !ok {
		return
	}

	ranked := urgency.Rank(req.Tasks, now)
	metrics.ObserveUrgency(ranked)

	c.JSON(http.StatusOK, gin.H{"now": now, "tasks": ranked})
}
