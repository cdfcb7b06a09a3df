package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// transitions counts state machine responses by machine and result
	// (accepted, declined, already_resolved, forbidden, ...).
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intro_transitions_total",
			Help: "Connection request and introduction responses by outcome.",
		},
		[]string{"machine", "result"},
	)

	// casRetries counts lost introduction compare-and-set rounds.
	casRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intro_cas_retries_total",
			Help: "Introduction updates retried after losing a compare-and-set.",
		},
	)

	// dispatches counts per-recipient dispatch outcomes by channel.
	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_recipients_total",
			Help: "Per-recipient dispatch outcomes.",
		},
		[]string{"channel", "outcome"},
	)

	// sendLat records transport latency in seconds.
	sendLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_send_duration_seconds",
			Help:    "Duration of outbound sends in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

func init() {
	prometheus.MustRegister(transitions, casRetries, dispatches, sendLat)
}
