// Package observability exposes the relay's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts transfer requests by terminal outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "requests_total",
			Help:      "Total transfer requests by outcome",
		},
		[]string{"outcome"},
	)

	// RejectionsTotal counts fee-policy rejections by reason code.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "rejections_total",
			Help:      "Total fee-policy rejections by reason",
		},
		[]string{"reason"},
	)

	// RateLimitedTotal counts requests denied by admission control.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "rate_limited_total",
			Help:      "Total requests denied by the rate limiter",
		},
	)

	// ConfirmationSeconds observes how long confirmation polling took for
	// transactions that reached a terminal state.
	ConfirmationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "confirmation_seconds",
			Help:      "Confirmation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)
