// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the parley relay.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM completion latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// ProviderRequestsTotal counts completion attempts sent to the backend.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_provider_requests_total",
			Help: "Provider completion attempts",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records backend completion latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// RetriesTotal counts completion attempts that were retried.
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_retries_total",
			Help: "Completion retries",
		},
		[]string{"model"},
	)

	// FallbacksTotal counts generations that exhausted all attempts and
	// returned a canned fallback message.
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_fallbacks_total",
			Help: "Fallback replies served",
		},
		[]string{"model"},
	)

	// WebhookRejectedTotal counts inbound webhook requests rejected before
	// reaching the engine, by reason (signature, validation).
	WebhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_webhook_rejected_total",
			Help: "Rejected webhook deliveries",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ProviderRequestsTotal,
		ProviderLatency,
		RetriesTotal,
		FallbacksTotal,
		WebhookRejectedTotal,
	)
}
