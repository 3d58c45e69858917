package health

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus instruments on a private registry,
// keeping default-registry collectors out of the /metrics output.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal         prometheus.Counter
	CycleFailuresTotal  prometheus.Counter
	MatchesFetchedTotal prometheus.Counter
	AlertsSentTotal     prometheus.Counter
	LedgerSize          prometheus.Gauge
	CycleDuration       prometheus.Histogram
}

// NewMetrics creates and registers all instruments.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evradar",
			Name:      "cycles_total",
			Help:      "Completed radar cycles, successful or failed.",
		}),
		CycleFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evradar",
			Name:      "cycle_failures_total",
			Help:      "Radar cycles that ended in an error.",
		}),
		MatchesFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evradar",
			Name:      "matches_fetched_total",
			Help:      "Match snapshots received from the feed.",
		}),
		AlertsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evradar",
			Name:      "alerts_sent_total",
			Help:      "Enter alerts committed to the dedup ledger.",
		}),
		LedgerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evradar",
			Name:      "ledger_size",
			Help:      "Identities in the dedup ledger.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evradar",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of one radar cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.CycleFailuresTotal,
		m.MatchesFetchedTotal,
		m.AlertsSentTotal,
		m.LedgerSize,
		m.CycleDuration,
	)
	return m
}

// Registry returns the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
