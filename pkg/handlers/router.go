package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiftdesk/workforce-api/pkg/auth"
	"github.com/shiftdesk/workforce-api/pkg/database"
	"github.com/shiftdesk/workforce-api/pkg/metrics"
)

// Version is reported on the root route
const Version = "1.0.0"

// NewRouter wires every route. The long-running server and the serverless
// entry point share it.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.Logger.Named("http")), Recovery(h.Logger), RequestMetrics())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Workforce Scheduling API",
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	r.POST("/admin/login", h.Login)
	r.POST("/auth/login", h.EmployeeLogin)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	managers := RequireRole(auth.RoleManager)

	api := r.Group("/api")
	api.Use(h.Authenticate())
	{
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)

		api.POST("/assignments/evaluate", h.EvaluateAssignment)
		api.POST("/assignments", managers, h.CreateAssignment)
		api.POST("/assignments/:id/approve", managers, h.ApproveClaim)
		api.POST("/assignments/:id/cancel", h.CancelAssignment)
		api.POST("/shifts/:id/claim", h.ClaimShift)
		api.GET("/shifts/:id/candidates", managers, h.SuggestCandidates)

		api.GET("/conflicts", managers, h.ListConflicts)
		api.POST("/conflicts", managers, h.DetectConflicts)
		api.GET("/tasks/urgency", h.RankTasks)
		api.POST("/tasks/urgency", h.ScoreTasks)

		api.POST("/templates/shifts/materialize", managers, h.MaterializeShifts)
		api.POST("/templates/tasks/materialize", managers, h.MaterializeTasks)

		api.GET("/locations", listEntities[database.Location](h))
		api.GET("/locations/:id", getEntity[database.Location](h))
		api.POST("/locations", managers, createEntity[database.Location](h))

		api.GET("/departments", listEntities[database.Department](h))
		api.GET("/departments/:id", getEntity[database.Department](h))
		api.POST("/departments", managers, createEntity[database.Department](h))

		api.GET("/areas", listEntities[database.Area](h))
		api.GET("/areas/:id", getEntity[database.Area](h))
		api.POST("/areas", managers, createEntity[database.Area](h))

		api.GET("/employees", managers, listEntities[database.Employee](h))
		api.GET("/employees/:id", managers, getEntity[database.Employee](h))
		api.POST("/employees", managers, h.CreateEmployee)

		api.GET("/shifts", listEntities[database.Shift](h))
		api.GET("/shifts/:id", getEntity[database.Shift](h))
		api.POST("/shifts", managers, createEntity[database.Shift](h))
		api.DELETE("/shifts/:id", managers, h.ArchiveShift)

		api.GET("/tasks", listEntities[database.Task](h))
		api.GET("/tasks/:id", getEntity[database.Task](h))
		api.POST("/tasks", managers, h.CreateTask)
		api.PUT("/tasks/:id/status", h.UpdateTaskStatus)

		api.GET("/labor-rules", h.GetLaborRules)
		api.PUT("/labor-rules", managers, h.PutLaborRules)
	}

	return r
}
