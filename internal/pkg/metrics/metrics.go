package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the gateway's metrics registry, served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// TransitionsTotal counts finished transition attempts by outcome.
	// result: success/rejected/failed, action: the policy action name.
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetboard_transitions_total",
			Help: "Total number of vehicle transition attempts by result.",
		},
		[]string{"result", "action"},
	)

	// TransitionSeconds observes the record keeper round-trip per attempt.
	TransitionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetboard_transition_seconds",
			Help:    "Latency of attempt-transition calls to the record keeper.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// StaleSnapshots tracks vehicles currently excluded from transitions
	// until a refresh succeeds.
	StaleSnapshots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetboard_stale_snapshots",
			Help: "Number of vehicle snapshots marked stale after a failed attempt.",
		},
	)

	// RefreshesTotal counts forced board refreshes by result (ok/error).
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetboard_refreshes_total",
			Help: "Total number of board refreshes against the record keeper.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TransitionsTotal,
		TransitionSeconds,
		StaleSnapshots,
		RefreshesTotal,
	)
}
