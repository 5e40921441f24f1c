package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineRunDuration  *prometheus.HistogramVec
	PipelineRunsInFlight prometheus.Gauge
	StageDuration        *prometheus.HistogramVec
	StageFailuresTotal   *prometheus.CounterVec

	// Collaborator metrics
	CollaboratorRequestsTotal   *prometheus.CounterVec
	CollaboratorRequestDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "facecast"
	}

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of generation pipeline runs",
			},
			[]string{"mode", "status"}, // status: success, failure
		),
		PipelineRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "End-to-end generation pipeline duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),
		PipelineRunsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_in_flight",
				Help:      "Current number of pipeline runs being processed",
			},
		),
		StageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		StageFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_failures_total",
				Help:      "Total number of pipeline stage failures",
			},
			[]string{"stage"},
		),

		// Collaborator metrics
		CollaboratorRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "collaborator",
				Name:      "requests_total",
				Help:      "Total number of external collaborator requests",
			},
			[]string{"collaborator", "status"}, // collaborator: tts, llm, ffmpeg, lipsync
		),
		CollaboratorRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "collaborator",
				Name:      "request_duration_seconds",
				Help:      "External collaborator request duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"collaborator"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPipelineRun records a completed or failed pipeline run.
func (m *Metrics) RecordPipelineRun(mode, status string, duration time.Duration) {
	m.PipelineRunsTotal.WithLabelValues(mode, status).Inc()
	m.PipelineRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordStage records one pipeline stage execution.
func (m *Metrics) RecordStage(stage string, duration time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.StageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// RecordCollaboratorRequest records an external collaborator request.
func (m *Metrics) RecordCollaboratorRequest(collaborator, status string, duration time.Duration) {
	m.CollaboratorRequestsTotal.WithLabelValues(collaborator, status).Inc()
	m.CollaboratorRequestDuration.WithLabelValues(collaborator).Observe(duration.Seconds())
}
