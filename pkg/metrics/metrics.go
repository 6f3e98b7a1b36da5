// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AssistantDuration tracks language model call duration.
	AssistantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "Assistant generate call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// AssistantTokensTotal tracks total LLM tokens processed.
	AssistantTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SessionsActive tracks sessions held in memory.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions held in memory",
		},
	)

	// ProposalsTotal tracks meeting proposals submitted.
	ProposalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_proposals_total",
			Help: "Total meeting proposals submitted",
		},
	)

	// ChatEntriesTotal tracks transcript entries appended.
	ChatEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_entries_total",
			Help: "Total transcript entries appended",
		},
		[]string{"role"},
	)

	// CommitsTotal tracks scheduling commits by outcome.
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_commits_total",
			Help: "Total scheduling commits by outcome",
		},
		[]string{"outcome"},
	)

	// RecordStoreFailuresTotal tracks meeting records that could not be persisted.
	RecordStoreFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_record_failures_total",
			Help: "Meeting records that failed to persist after a successful calendar write",
		},
	)

	// PublishFailuresTotal tracks transcript publishes that failed.
	PublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_failures_total",
			Help: "JetStream publishes that failed",
		},
		[]string{"kind"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAssistant records metrics for an assistant call.
func RecordAssistant(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	AssistantDuration.WithLabelValues(provider, status).Observe(duration)
	if model == "" {
		return
	}
	AssistantTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	AssistantTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordCommit records the outcome of a scheduling commit.
func RecordCommit(outcome string) {
	CommitsTotal.WithLabelValues(outcome).Inc()
}
