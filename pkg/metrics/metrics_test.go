package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

type stubEvaluator models.RuleResult

func (s stubEvaluator) Evaluate(context.Context, models.ShiftChange) models.RuleResult {
	return models.RuleResult(s)
}

func TestInstrument_RecordsVerdict(t *testing.T) {
	blocked := RuleEvaluationsTotal.WithLabelValues("blocked")
	skills := RuleBlocksTotal.WithLabelValues("LACK_SKILL")
	before := testutil.ToFloat64(blocked)
	beforeSkills := testutil.ToFloat64(skills)

	e := Instrument(stubEvaluator{
		Blocks:   []string{"LACK_SKILL_forklift"},
		Warnings: []string{},
	})
	result := e.Evaluate(context.Background(), models.ShiftChange{})

	assert.False(t, result.Eligible)
	assert.Equal(t, before+1, testutil.ToFloat64(blocked))
	assert.Equal(t, beforeSkills+1, testutil.ToFloat64(skills))
}

func TestObserveConflicts(t *testing.T) {
	overlap := ConflictsDetectedTotal.WithLabelValues(string(models.ConflictOverlap))
	before := testutil.ToFloat64(overlap)

	ObserveConflicts(map[string][]models.Conflict{
		"emp-1": {{Kind: models.ConflictOverlap}, {Kind: models.ConflictOvertime}},
		"emp-2": {{Kind: models.ConflictOverlap}},
	})

	assert.Equal(t, before+2, testutil.ToFloat64(overlap))
}

func TestObserveEvaluation_Duration(t *testing.T) {
	ObserveEvaluation(models.RuleResult{Eligible: true}, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(RuleEvaluationDurationSeconds))
}
