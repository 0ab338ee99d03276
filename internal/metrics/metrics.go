// Package metrics implements C7: Prometheus collectors for the bridge's
// ingest/emission/retry/registry-size signals.
//
// Grounded on maniack-miniflightradar/monitoring/monitoring.go's package-
// level CounterVec/GaugeVec/HistogramVec declarations registered once in
// init(); the OTel tracing half of that file is deliberately not adopted
// (see DESIGN.md) since nothing in this domain needs distributed tracing
// spans across a single-process event loop.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "sentrybridge"

var (
	// DronesLive tracks the current size of the live set.
	DronesLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drones_live",
		Help:      "Number of drones currently tracked in the live set.",
	})

	// ObservationsDropped counts telemetry frames rejected for lacking a
	// usable identifier.
	ObservationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_dropped_total",
		Help:      "Telemetry frames dropped for lacking a recognizable identifier.",
	})

	// StatusDropped counts status frames rejected as malformed.
	StatusDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_dropped_total",
		Help:      "Status frames dropped as malformed.",
	})

	// CoTEmitted counts rendered CoT documents by kind (drone, pilot, home,
	// retirement, status).
	CoTEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cot_emitted_total",
		Help:      "CoT documents rendered, by kind.",
	}, []string{"kind"})

	// SinkSends counts sink-level send attempts, by sink kind and outcome.
	SinkSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_send_total",
		Help:      "Sink send attempts, by sink kind and outcome.",
	}, []string{"sink", "outcome"})

	// SinkRetriesExhausted counts the critical-log path in fanout.Messenger.
	SinkRetriesExhausted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_retries_exhausted_total",
		Help:      "Sends that exhausted their retry budget, by sink kind.",
	}, []string{"sink"})

	// TickDuration observes how long each registry tick takes to compute
	// and render its emissions.
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall-clock duration of one registry tick, including CoT rendering.",
		Buckets:   prometheus.DefBuckets,
	})

	// ConfigReloads counts hot-reload attempts, by outcome.
	ConfigReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_reloads_total",
		Help:      "Configuration hot-reload attempts, by outcome (applied, rejected).",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		DronesLive,
		ObservationsDropped,
		StatusDropped,
		CoTEmitted,
		SinkSends,
		SinkRetriesExhausted,
		TickDuration,
		ConfigReloads,
	)
}
