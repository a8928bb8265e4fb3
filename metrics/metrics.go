package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tender-scraper/models"
)

// Metrics bundles Prometheus collectors for the ingestion pipeline.
type Metrics struct {
	Registry         *prometheus.Registry
	CandidatesTotal  *prometheus.CounterVec
	PagesTotal       *prometheus.CounterVec
	SweepsTotal      prometheus.Counter
	SweepDuration    prometheus.Histogram
	SinkErrorsTotal  *prometheus.CounterVec
	NavigationErrors *prometheus.CounterVec
	SourceCooldowns  *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	candidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_candidates_total",
			Help: "Candidates processed, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_index_pages_total",
			Help: "Index pages visited, by source.",
		},
		[]string{"source"},
	)
	sweeps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenders_sweeps_total",
			Help: "Completed sweeps across all sources.",
		},
	)
	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenders_sweep_duration_seconds",
			Help:    "Wall time of one sweep.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		},
	)
	sinkErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_sink_errors_total",
			Help: "Sink failures, by sink.",
		},
		[]string{"sink"},
	)
	navErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_navigation_errors_total",
			Help: "Browser navigation failures, by kind.",
		},
		[]string{"kind"},
	)
	cooldowns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_source_cooldowns_total",
			Help: "Times a source was put on cooldown.",
		},
		[]string{"source"},
	)

	registry.MustRegister(candidates, pages, sweeps, sweepDuration, sinkErrors, navErrors, cooldowns)

	return &Metrics{
		Registry:         registry,
		CandidatesTotal:  candidates,
		PagesTotal:       pages,
		SweepsTotal:      sweeps,
		SweepDuration:    sweepDuration,
		SinkErrorsTotal:  sinkErrors,
		NavigationErrors: navErrors,
		SourceCooldowns:  cooldowns,
	}
}

// IncCandidate counts one processed candidate.
func (m *Metrics) IncCandidate(source models.Source, outcome models.Outcome) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(string(source), string(outcome)).Inc()
}

// IncPage counts one visited index page.
func (m *Metrics) IncPage(source models.Source) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(string(source)).Inc()
}

// ObserveSweep records a finished sweep.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
	m.SweepDuration.Observe(d.Seconds())
}

// IncSinkError increments the sink failure counter.
func (m *Metrics) IncSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// IncNavigationError increments the navigation failure counter for a kind label.
func (m *Metrics) IncNavigationError(kind string) {
	if m == nil {
		return
	}
	m.NavigationErrors.WithLabelValues(kind).Inc()
}

// IncCooldown counts a source being parked.
func (m *Metrics) IncCooldown(source models.Source) {
	if m == nil {
		return
	}
	m.SourceCooldowns.WithLabelValues(string(source)).Inc()
}
