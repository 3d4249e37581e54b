package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by flow (password|admin|google) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"flow", "result"},
	)

	// Registrations counts account registrations by result (success|conflict|error).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"result"},
	)

	// MailDispatches counts background email deliveries by result (success|failure).
	MailDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_mail_dispatches_total",
			Help: "Total number of background mail dispatch attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
