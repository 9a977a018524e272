// Package http exposes the read-only monitoring surface: health, Prometheus
// metrics, and the latest run's ranking and portfolio as JSON.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus instruments.
type Metrics struct {
	RunsTotal         prometheus.Counter
	CandidatesScored  prometheus.Counter
	CandidatesDropped *prometheus.CounterVec
	AdvisoryFallbacks prometheus.Counter
	RunDuration       prometheus.Histogram
}

// NewMetrics registers the engine instruments on a registry. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinpilot_runs_total",
			Help: "Completed scoring/allocation runs.",
		}),
		CandidatesScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinpilot_candidates_scored_total",
			Help: "Candidates that produced a composite score.",
		}),
		CandidatesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coinpilot_candidates_dropped_total",
			Help: "Candidates dropped before ranking, by reason.",
		}, []string{"reason"}),
		AdvisoryFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "coinpilot_advisory_fallbacks_total",
			Help: "Portfolio runs that used the deterministic fallback selector.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "coinpilot_run_duration_seconds",
			Help:    "End-to-end run duration.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}
