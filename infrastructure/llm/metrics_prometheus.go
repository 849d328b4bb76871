package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements MetricsCollector with Prometheus vectors.
// Metrics are registered against the supplied registerer so multiple
// configurations can coexist in tests.
type PrometheusMetrics struct {
	requestLatency *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
	tokenCounter   *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates and registers the LLM request metrics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Latency of LLM provider requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM provider requests.",
			},
			[]string{"provider", "model", "status"},
		),
		tokenCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total tokens consumed by LLM requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
	}
	reg.MustRegister(m.requestLatency, m.requestCounter, m.tokenCounter)
	return m
}

// RecordLatency records request latency in the histogram.
func (m *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.requestLatency.WithLabelValues(
		labels["provider"], labels["model"], labels["status"],
	).Observe(duration.Seconds())
}

// RecordCounter increments the matching counter vector.
func (m *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_requests_total":
		m.requestCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Add(value)
	case "llm_tokens_total":
		m.tokenCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	}
}
