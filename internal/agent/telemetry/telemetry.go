package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/geobrief/geobrief/config"
)

// Telemetry tracks pipeline outcomes and per-stage timings. It keeps an
// in-memory snapshot for the ops endpoint and mirrors counters into
// Prometheus for the /metrics endpoint.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics holds aggregate pipeline metrics.
type Metrics struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64

	StageExecutions map[string]int64
	StageFailures   map[string]int64
	StageDurations  map[string]time.Duration
}

// StageEvent records one stage execution.
type StageEvent struct {
	Stage    string
	Duration time.Duration
	Success  bool
}

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geobrief_pipeline_requests_total",
		Help: "Pipeline runs partitioned by outcome.",
	}, []string{"outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geobrief_stage_duration_seconds",
		Help:    "Per-stage execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geobrief_stage_failures_total",
		Help: "Stage executions that returned a failure envelope.",
	}, []string{"stage"})
)

// NewTelemetry creates a new telemetry instance
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: Metrics{
			StageExecutions: make(map[string]int64),
			StageFailures:   make(map[string]int64),
			StageDurations:  make(map[string]time.Duration),
		},
	}
}

// RecordRequest records one full pipeline run.
func (t *Telemetry) RecordRequest(success bool, duration time.Duration) {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.TotalRequests++
	if success {
		t.metrics.SuccessfulRequests++
	} else {
		t.metrics.FailedRequests++
	}
	t.mu.Unlock()

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(outcome).Inc()

	if t.config.PeriodicLogs {
		t.logger.Printf("pipeline run finished: success=%v duration=%v", success, duration)
	}
}

// RecordStageEvent records one stage execution.
func (t *Telemetry) RecordStageEvent(ev StageEvent) {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.StageExecutions[ev.Stage]++
	t.metrics.StageDurations[ev.Stage] += ev.Duration
	if !ev.Success {
		t.metrics.StageFailures[ev.Stage]++
	}
	t.mu.Unlock()

	stageDuration.WithLabelValues(ev.Stage).Observe(ev.Duration.Seconds())
	if !ev.Success {
		stageFailures.WithLabelValues(ev.Stage).Inc()
	}
}

// GetMetrics returns a copy of the current metrics snapshot.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := Metrics{
		TotalRequests:      t.metrics.TotalRequests,
		SuccessfulRequests: t.metrics.SuccessfulRequests,
		FailedRequests:     t.metrics.FailedRequests,
		StageExecutions:    make(map[string]int64, len(t.metrics.StageExecutions)),
		StageFailures:      make(map[string]int64, len(t.metrics.StageFailures)),
		StageDurations:     make(map[string]time.Duration, len(t.metrics.StageDurations)),
	}
	for k, v := range t.metrics.StageExecutions {
		snapshot.StageExecutions[k] = v
	}
	for k, v := range t.metrics.StageFailures {
		snapshot.StageFailures[k] = v
	}
	for k, v := range t.metrics.StageDurations {
		snapshot.StageDurations[k] = v
	}
	return snapshot
}
