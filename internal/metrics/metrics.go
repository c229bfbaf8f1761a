// Package metrics records workflow and connector telemetry with Prometheus.
// A nil *Metrics is valid and records nothing, so tests and the CLI can run
// the workflow without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	runsInFlight    prometheus.Gauge
	connectorErrors *prometheus.CounterVec
	questions       prometheus.Histogram
}

// New builds a registry with the process and Go runtime collectors plus the
// PR/FAQ workflow collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prfaq_stage_duration_seconds",
				Help:    "Duration of a workflow stage in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prfaq_runs_total",
				Help: "Total number of workflow runs by kind and outcome",
			},
			[]string{"kind", "outcome"}, // kind: generate, modify
		),
		runsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "prfaq_runs_in_flight",
				Help: "Number of workflow runs currently executing",
			},
		),
		connectorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prfaq_connector_errors_total",
				Help: "Total number of source connector failures",
			},
			[]string{"source"}, // source: kb, web, scrape
		),
		questions: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prfaq_questions_resolved",
				Help:    "Number of questions resolved per answer stage",
				Buckets: prometheus.LinearBuckets(0, 5, 8),
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunStarted increments the in-flight gauge and returns a function that
// records the run outcome and decrements it.
func (m *Metrics) RunStarted(kind string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	m.runsInFlight.Inc()
	return func(outcome string) {
		m.runsInFlight.Dec()
		m.runsTotal.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) ConnectorError(source string) {
	if m == nil {
		return
	}
	m.connectorErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) QuestionsResolved(n int) {
	if m == nil {
		return
	}
	m.questions.Observe(float64(n))
}
