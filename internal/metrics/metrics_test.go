// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperforge/pkg/types"
)

func event(id string, stage types.Stage, status types.EventStatus, at time.Time) types.Event {
	return types.Event{RequestID: id, Stage: stage, Status: status, Time: at}
}

func TestCollector_SuccessfulRun(t *testing.T) {
	c := NewCollector(nil)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Emit(event("r1", types.StageValidation, types.StatusStarted, t0))
	c.Emit(event("r1", types.StageValidation, types.StatusCompleted, t0.Add(time.Millisecond)))
	c.Emit(event("r1", types.StageLLMResponse, types.StatusStarted, t0))
	c.Emit(event("r1", types.StageLLMResponse, types.StatusCompleted, t0.Add(20*time.Second)))
	c.Emit(event("r1", types.StageComplete, types.StatusSuccess, t0))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.stageOutcomes.WithLabelValues("validation", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("succeeded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.runs.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.stageDuration))
	assert.Empty(t, c.started)
}

func TestCollector_FailedRun(t *testing.T) {
	c := NewCollector(nil)
	now := time.Now()

	c.Emit(event("r2", types.StageValidation, types.StatusStarted, now))
	c.Emit(event("r2", types.StageValidation, types.StatusError, now))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.stageOutcomes.WithLabelValues("validation", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("failed")))
	assert.Empty(t, c.started)
}

func TestCollector_WriteFile(t *testing.T) {
	c := NewCollector(nil)
	c.Emit(event("r3", types.StageComplete, types.StatusSuccess, time.Now()))

	path := filepath.Join(t.TempDir(), "paperforge.prom")
	require.NoError(t, c.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `paperforge_runs_total{outcome="succeeded"} 1`)
}
