package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/templates"
)

type materializeRange struct {
	From   time.Time `json:"from" validate:"required"`
	To     time.Time `json:"to" validate:"required,gtfield=From"`
	DryRun bool      `json:"dry_run"`
}

// MaterializeShifts expands a shift template and stores the resulting shifts
func (h *Handler) MaterializeShifts(c *gin.Context) {
	var req struct {
		Template templates.ShiftTemplate `json:"template"`
		materializeRange
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Template.Timezone == "" {
		req.Template.Timezone = h.Location.String()
	}

	shifts, err := templates.MaterializeShifts(req.Template, req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := currentIdentity(c).OrgID
	rows := make([]database.Shift, len(shifts))
	for i, s := range shifts {
		rows[i] = database.Shift{
			ID:             s.ID,
			OrgID:          orgID,
			DepartmentID:   s.DepartmentID,
			LocationID:     s.LocationID,
			AreaID:         s.AreaID,
			PositionID:     s.PositionID,
			StartAt:        s.Start,
			EndAt:          s.End,
			RequiredSkills: s.RequiredSkills,
			IsOpen:         s.IsOpen,
			TemplateID:     req.Template.ID,
		}
	}

	if !req.DryRun {
		if err := h.Store.CreateShifts(c.Request.Context(), rows); err != nil {
			h.respondError(c, err)
			return
		}
		h.Logger.Info("Shift template materialized",
			zap.String("template_id", req.Template.ID),
			zap.Int("shifts", len(rows)))
	}

	c.JSON(http.StatusCreated, gin.H{"shifts": rows, "dry_run": req.DryRun})
}

// MaterializeTasks expands a task template, snapshotting each task's initial urgency
func (h *Handler) MaterializeTasks(c *gin.Context) {
	var req struct {
		Template templates.TaskTemplate `json:"template"`
		materializeRange
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Template.Timezone == "" {
		req.Template.Timezone = h.Location.String()
	}

	occurrences, err := templates.MaterializeTasks(req.Template, req.From, req.To, h.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := currentIdentity(c).OrgID
	rows := make([]database.Task, len(occurrences))
	for i, o := range occurrences {
		rows[i] = database.Task{
			ID:                  o.Task.ID,
			OrgID:               orgID,
			DepartmentID:        req.Template.DepartmentID,
			Title:               o.Task.Title,
			DueAt:               o.Task.DueAt,
			WindowStart:         o.Task.WindowStart,
			WindowEnd:           o.Task.WindowEnd,
			Criticality:         o.Task.Criticality,
			Status:              o.Task.Status,
			InitialUrgencyScore: o.InitialUrgency.Score,
			InitialUrgencyLevel: string(o.InitialUrgency.Level),
			TemplateID:          req.Template.ID,
		}
	}

	if !req.DryRun {
		if err := h.Store.CreateTasks(c.Request.Context(), rows); err != nil {
			h.respondError(c, err)
			return
		}
		h.Logger.Info("Task template materialized",
			zap.String("template_id", req.Template.ID),
			zap.Int("tasks", len(rows)))
	}

	c.JSON(http.StatusCreated, gin.H{"tasks": rows, "dry_run": req.DryRun})
}
