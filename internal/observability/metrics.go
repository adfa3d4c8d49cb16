// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Estimation metrics
	SkusEstimated  prometheus.Counter
	SkusSkipped    *prometheus.CounterVec
	ElasticSkus    prometheus.Gauge
	AvgElasticity  prometheus.Gauge
	PValueObserved prometheus.Histogram

	// Simulation metrics
	ScenariosSimulated prometheus.Counter
	ScenariosSkipped   *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	ObservationsLoaded prometheus.Counter
	ArtifactsWritten   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	RunInFlight       prometheus.Gauge
	WSClients         prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pricing_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SkusEstimated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "elasticity",
			Name:      "skus_estimated_total",
			Help:      "Total number of SKUs with a fitted elasticity",
		}),
		SkusSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "elasticity",
			Name:      "skus_skipped_total",
			Help:      "Total number of SKUs excluded from estimation by failure kind",
		}, []string{"kind"}),
		ElasticSkus: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "elasticity",
			Name:      "elastic_skus",
			Help:      "Number of SKUs classified Elastic in the last run",
		}),
		AvgElasticity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "elasticity",
			Name:      "average",
			Help:      "Mean elasticity across estimated SKUs in the last run",
		}),
		PValueObserved: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "elasticity",
			Name:      "p_value",
			Help:      "Distribution of slope p-values",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ScenariosSimulated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "scenarios_total",
			Help:      "Total number of (SKU, price change) projections",
		}),
		ScenariosSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "scenarios_skipped_total",
			Help:      "Total number of projections excluded by failure kind",
		}, []string{"kind"}),

		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"phase"}),
		ObservationsLoaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "observations_loaded_total",
			Help:      "Total number of sales observations loaded",
		}),
		ArtifactsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "artifacts_written_total",
			Help:      "Total number of output files written",
		}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database operation errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
		RunInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "run_in_flight",
			Help:      "1 while a pipeline run is executing",
		}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients",
			Help:      "Connected run-feed websocket clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordEstimated records one fitted SKU and its p-value.
func (m *Metrics) RecordEstimated(pValue float64) {
	m.SkusEstimated.Inc()
	m.PValueObserved.Observe(pValue)
}

// RecordSkipped records a per-SKU or per-scenario failure.
func (m *Metrics) RecordSkipped(stage, kind string) {
	if stage == "simulate" {
		m.ScenariosSkipped.WithLabelValues(kind).Inc()
		return
	}
	m.SkusSkipped.WithLabelValues(kind).Inc()
}

// RecordRunTotals updates the last-run gauges.
func (m *Metrics) RecordRunTotals(scenarios, elastic int, avgElasticity float64) {
	m.ScenariosSimulated.Add(float64(scenarios))
	m.ElasticSkus.Set(float64(elastic))
	m.AvgElasticity.Set(avgElasticity)
}

// RecordPipelineRun records a pipeline run.
func (m *Metrics) RecordPipelineRun(phase, status string, durationSeconds float64) {
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordDBQuery records database operation metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run on DefaultMetrics.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.RecordPipelineRun(phase, status, durationSeconds)
}

// RecordDBQuery records database operation metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
