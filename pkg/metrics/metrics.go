// Package metrics exposes Prometheus counters for rule evaluations, conflict
// detection, urgency scoring and the HTTP surface.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/rules"
)

// Registry is the custom prometheus registry for the service
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// =============================================================================
// Rules engine
// =============================================================================

// RuleEvaluationsTotal counts verdicts by outcome (eligible, blocked).
var RuleEvaluationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rules",
	Name:      "evaluations_total",
	Help:      "Assignment evaluations by outcome",
}, []string{"outcome"})

// RuleBlocksTotal counts block codes by family.
var RuleBlocksTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rules",
	Name:      "blocks_total",
	Help:      "Blocking rule violations by code family",
}, []string{"code"})

// RuleWarningsTotal counts warning codes by family.
var RuleWarningsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rules",
	Name:      "warnings_total",
	Help:      "Advisory rule warnings by code family",
}, []string{"code"})

var RuleEvaluationDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rules",
	Name:      "evaluation_duration_seconds",
	Help:      "Time taken to evaluate one assignment",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// =============================================================================
// Schedule analysis
// =============================================================================

// ConflictsDetectedTotal counts detected conflicts by type.
var ConflictsDetectedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "conflicts",
	Name:      "detected_total",
	Help:      "Schedule conflicts found by the detector, by type",
}, []string{"type"})

// TasksScoredTotal counts urgency results by level.
var TasksScoredTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "urgency",
	Name:      "tasks_scored_total",
	Help:      "Tasks scored for urgency, by resulting level",
}, []string{"level"})

// AssignmentsCommittedTotal counts persisted assignments by path (direct, claim).
var AssignmentsCommittedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assignments",
	Name:      "committed_total",
	Help:      "Assignments persisted as active, by path",
}, []string{"path"})

// =============================================================================
// HTTP
// =============================================================================

var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status",
}, []string{"method", "route", "status"})

var HTTPRequestDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// =============================================================================
// Helper Functions
// =============================================================================

// ObserveEvaluation records one rules engine verdict.
func ObserveEvaluation(result models.RuleResult, elapsed time.Duration) {
	outcome := "eligible"
	if !result.Eligible {
		outcome = "blocked"
	}
	RuleEvaluationsTotal.WithLabelValues(outcome).Inc()
	for _, code := range result.Blocks {
		RuleBlocksTotal.WithLabelValues(rules.Family(code)).Inc()
	}
	for _, code := range result.Warnings {
		RuleWarningsTotal.WithLabelValues(rules.Family(code)).Inc()
	}
	RuleEvaluationDurationSeconds.Observe(elapsed.Seconds())
}

// ObserveConflicts records a detector run.
func ObserveConflicts(byEmployee map[string][]models.Conflict) {
	for _, conflicts := range byEmployee {
		for _, c := range conflicts {
			ConflictsDetectedTotal.WithLabelValues(string(c.Kind)).Inc()
		}
	}
}

// ObserveUrgency records scored tasks.
func ObserveUrgency(results []models.UrgencyResult) {
	for _, r := range results {
		TasksScoredTotal.WithLabelValues(string(r.Level)).Inc()
	}
}

// Evaluator is the rules engine surface that can be instrumented.
type Evaluator interface {
	Evaluate(ctx context.Context, change models.ShiftChange) models.RuleResult
}

type instrumented struct {
	next Evaluator
}

// Instrument wraps an evaluator so every verdict is recorded.
func Instrument(next Evaluator) Evaluator {
	return instrumented{next: next}
}

func (i instrumented) Evaluate(ctx context.Context, change models.ShiftChange) models.RuleResult {
	start := time.Now()
	result := i.next.Evaluate(ctx, change)
	ObserveEvaluation(result, time.Since(start))
	return result
}
