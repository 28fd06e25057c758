// Package metrics exposes Prometheus gauges/counters around the tick loop.
// These are purely informational — nothing here is ever read back into the
// decision path.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	activeOrderCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pmmcore_active_order_count",
			Help: "Number of active orders currently tracked, by side.",
		}, []string{"pair", "side"},
	)

	proposalLevelCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pmmcore_proposal_level_count",
			Help: "Number of levels emitted by the proposal pipeline, by side.",
		}, []string{"pair", "side"},
	)

	cancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmmcore_cancels_total",
			Help: "Cancel requests issued by the Refresh/Cancel Controller, by reason.",
		}, []string{"pair", "reason"},
	)

	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmmcore_fills_total",
			Help: "Fills observed by the Event Sink, by side.",
		}, []string{"pair", "side"},
	)

	tickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pmmcore_tick_duration_seconds",
			Help:    "Wall-clock time spent in one strategy tick.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pair"},
	)
)

func init() {
	prometheus.MustRegister(activeOrderCount, proposalLevelCount, cancelsTotal, fillsTotal, tickDuration)
}

// SetActiveOrderCount records the current count of active orders per side.
func SetActiveOrderCount(pair, side string, n int) {
	activeOrderCount.WithLabelValues(pair, side).Set(float64(n))
}

// SetProposalLevelCount records how many levels the pipeline emitted for
// one side this tick.
func SetProposalLevelCount(pair, side string, n int) {
	proposalLevelCount.WithLabelValues(pair, side).Set(float64(n))
}

// IncCancels increments the cancel counter for reason.
func IncCancels(pair, reason string) {
	cancelsTotal.WithLabelValues(pair, reason).Inc()
}

// IncFills increments the fill counter for side.
func IncFills(pair, side string) {
	fillsTotal.WithLabelValues(pair, side).Inc()
}

// ObserveTickDuration records how long one tick took, in seconds.
func ObserveTickDuration(pair string, seconds float64) {
	tickDuration.WithLabelValues(pair).Observe(seconds)
}
