package metrics

import (
	"errors"
	"testing"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "conflict", Result(apperrors.ErrTerminalState))
	assert.Equal(t, "validation", Result(apperrors.Missing("photo")))
	assert.Equal(t, "error", Result(errors.New("db down")))
}

func TestPrometheus_RecordTransition(t *testing.T) {
	before := testutil.ToFloat64(WorkflowTransitions.WithLabelValues("submit", "ok"))
	Prometheus{}.RecordTransition("submit", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(WorkflowTransitions.WithLabelValues("submit", "ok")))
}
