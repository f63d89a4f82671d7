package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ModelCalls counts individual attempts against the model service.
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inboxagent_model_calls_total",
			Help: "Model service call attempts by outcome",
		},
		[]string{"provider", "outcome"}, // outcome: success, quota, error
	)

	// ModelRetries counts backoff sleeps taken after quota errors.
	ModelRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inboxagent_model_retries_total",
			Help: "Retries scheduled after rate-limit or quota errors",
		},
		[]string{"provider"},
	)

	// ModelCallLatency records per-attempt latency in seconds.
	ModelCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inboxagent_model_call_latency_seconds",
			Help:    "Model service call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"provider"},
	)

	// InsightOutcomes counts insight operations by their resolved outcome.
	InsightOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inboxagent_insight_outcomes_total",
			Help: "Insight operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordModelCall records the latency and outcome of one model attempt.
func RecordModelCall(provider, outcome string, latency time.Duration) {
	ModelCalls.WithLabelValues(provider, outcome).Inc()
	ModelCallLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordRetry records a scheduled backoff retry.
func RecordRetry(provider string) {
	ModelRetries.WithLabelValues(provider).Inc()
}

// RecordInsight records the outcome of an insight operation.
func RecordInsight(operation, outcome string) {
	InsightOutcomes.WithLabelValues(operation, outcome).Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
