// Package metrics defines the client-side Prometheus metrics: request
// outcomes, latency, auth failures, and onboarding-cache behaviour. It is the
// single source of truth for metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clientcore"

// RequestsTotal counts completed request attempts.
// Labels:
//   - method: HTTP method, or "UPLOAD" for multipart posts
//   - outcome: "ok", "business_error", "auth_error", "network_error"
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of API request attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// RequestDuration measures wall time from dispatch to classification.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests from dispatch to classification.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// AuthFailuresTotal counts authentication failures that tore the session down.
var AuthFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of UNAUTHENTICATED/401 responses that cleared the session.",
	},
)

// OnboardingFetchTotal counts onboarding-state lookups.
// Label:
//   - result: "cached", "fetched", "failed"
var OnboardingFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboarding_fetch_total",
		Help:      "Total number of onboarding-state lookups, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts navigation guard outcomes.
// Label:
//   - decision: "allow", "signin", "gate_infra", "gate_health", "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of navigation guard evaluations, by decision.",
	},
	[]string{"decision"},
)
