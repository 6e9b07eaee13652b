// Package metrics provides Prometheus metrics for the admission pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm_gateway"

var (
	// AuthOutcomesTotal counts per-request authentication decisions.
	AuthOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_outcomes_total",
			Help:      "Authentication outcomes by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// SessionStoreErrorsTotal counts store failures that were downgraded to
	// "no session". Responses stay identical; this is the only place the
	// two cases are told apart.
	SessionStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_store_errors_total",
			Help:      "Session store lookups that failed, by pipeline stage.",
		},
		[]string{"stage"},
	)

	// BypassRequestsTotal counts current-identity probe results.
	BypassRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bypass_requests_total",
			Help:      "Current-identity endpoint results.",
		},
		[]string{"result"},
	)

	// GateDenialsTotal counts 401 responses written by the access gate.
	GateDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_denials_total",
			Help:      "Requests denied by the access gate.",
		},
	)

	// APIKeyValidationsTotal counts API key verification attempts.
	APIKeyValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_key_validations_total",
			Help:      "API key validations by result.",
		},
		[]string{"result"},
	)

	// RateLimitRejectionsTotal counts calls refused by the rate limiter.
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Rate limited calls by rejecting window.",
		},
		[]string{"scope"},
	)
)
