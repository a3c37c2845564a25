// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics turns pipeline events into Prometheus metrics on a
// private registry, written out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/pkg/types"
)

const namespace = "paperforge"

type stageKey struct {
	requestID string
	stage     types.Stage
}

// Collector records stage durations, stage outcomes, and finished runs.
// It is safe for concurrent use by many pipeline runs.
type Collector struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageOutcomes *prometheus.CounterVec
	runs          *prometheus.CounterVec

	mu      sync.Mutex
	started map[stageKey]time.Time

	logger *zap.Logger
}

// NewCollector registers the paperforge metrics on a fresh registry.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		started:  make(map[stageKey]time.Time),
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage", "status"},
	)
	c.stageOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      "Pipeline stage outcomes",
		},
		[]string{"stage", "status"},
	)
	c.runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	c.registry.MustRegister(c.stageDuration, c.stageOutcomes, c.runs)
	return c
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Emit consumes one pipeline event.
func (c *Collector) Emit(ev types.Event) {
	key := stageKey{ev.RequestID, ev.Stage}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Status {
	case types.StatusStarted:
		c.started[key] = at
	case types.StatusCompleted, types.StatusError:
		c.stageOutcomes.WithLabelValues(string(ev.Stage), string(ev.Status)).Inc()
		if begin, ok := c.started[key]; ok {
			c.stageDuration.WithLabelValues(string(ev.Stage), string(ev.Status)).Observe(at.Sub(begin).Seconds())
			delete(c.started, key)
		}
		if ev.Status == types.StatusError {
			c.runs.WithLabelValues("failed").Inc()
			c.forget(ev.RequestID)
		}
	case types.StatusSuccess:
		c.runs.WithLabelValues("succeeded").Inc()
		c.forget(ev.RequestID)
	}
}

// forget drops any open stages of a finished run. Callers hold mu.
func (c *Collector) forget(requestID string) {
	for k := range c.started {
		if k.requestID == requestID {
			delete(c.started, k)
		}
	}
}

// WriteFile writes the registry in textfile exposition format.
func (c *Collector) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	c.logger.Debug("wrote metrics", zap.String("path", path))
	return nil
}
