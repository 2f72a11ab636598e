// Package telemetry exposes engine run metrics for monitoring endpoints.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds all Prometheus metrics for the compliance engine.
type MetricsRegistry struct {
	RoomsEvaluated prometheus.Counter
	RoomsFailed    prometheus.Counter
	TestsEvaluated prometheus.Counter
	TestsSkipped   *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	ActiveRuns     prometheus.Gauge
}

// NewMetricsRegistry creates the engine metrics and registers them on reg.
// A nil registerer yields unregistered metrics, which tests rely on.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	m := &MetricsRegistry{
		RoomsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ieq_rooms_evaluated_total",
			Help: "Total number of rooms evaluated across runs",
		}),
		RoomsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ieq_rooms_failed_total",
			Help: "Total number of rooms whose evaluation pipeline failed",
		}),
		TestsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ieq_tests_evaluated_total",
			Help: "Total number of tests that produced a compliance result",
		}),
		TestsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ieq_tests_skipped_total",
			Help: "Total number of skipped tests by reason",
		}, []string{"reason"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ieq_run_duration_seconds",
			Help:    "Duration of complete portfolio runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ieq_active_runs",
			Help: "Number of portfolio runs currently executing",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RoomsEvaluated,
			m.RoomsFailed,
			m.TestsEvaluated,
			m.TestsSkipped,
			m.RunDuration,
			m.ActiveRuns,
		)
	}
	return m
}
