package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RateLimitChecksTotal counts rate limiter decisions per rule
	RateLimitChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lander_ratelimit_checks_total",
			Help: "Total number of rate limiter decisions",
		},
		[]string{"rule", "result"}, // "allowed", "throttled"
	)

	// GuardRejectionsTotal counts requests stopped at the trust boundary
	GuardRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lander_guard_rejections_total",
			Help: "Total number of requests rejected by request guards",
		},
		[]string{"reason"},
	)

	// ErrorsTotal counts sanitized internal errors by category
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lander_errors_total",
			Help: "Total number of internal errors returned to clients",
		},
		[]string{"category"},
	)
)
