// Package middleware provides cross-cutting concerns for the arena service.
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/promptarena/arena/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It covers generation throughput and latency per backend,
// vote and battle counts, and current leaderboard state.
type PrometheusMetrics struct {
	generationLatency *prometheus.HistogramVec
	generationTotal   *prometheus.CounterVec
	generationTokens  *prometheus.CounterVec
	operationCounter  *prometheus.CounterVec
	ratingGauge       *prometheus.GaugeVec
	systemGauges      *prometheus.GaugeVec
	genericHistogram  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Generation-specific metrics.
		generationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_latency_seconds",
				Help:    "Wall-clock duration of backend generation calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		generationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_requests_total",
				Help: "Total backend generation calls by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		generationTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_tokens_total",
				Help: "Total tokens consumed by backend generation calls.",
			},
			[]string{"provider", "model", "status", "token_type"},
		),

		// General service metrics.
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_operations_total",
				Help: "Total operations performed by the arena service.",
			},
			[]string{"operation", "status"},
		),
		ratingGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_model_rating",
				Help: "Current rating per competing model.",
			},
			[]string{"model"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_system_state",
				Help: "Current system state values for the arena service.",
			},
			[]string{"metric"},
		),
		genericHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_operation_duration_seconds",
				Help:    "Execution time of arena service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func label(labels map[string]string, key string) string {
	v, ok := labels[key]
	if !ok || v == "" {
		return "unknown"
	}
	return v
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "generation_requests_total":
		pm.generationTotal.WithLabelValues(
			label(labels, "provider"),
			label(labels, "model"),
			label(labels, "status"),
		).Add(value)
	case "generation_tokens_total":
		pm.generationTokens.WithLabelValues(
			label(labels, "provider"),
			label(labels, "model"),
			label(labels, "status"),
			label(labels, "token_type"),
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, label(labels, "status")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "model_rating":
		pm.ratingGauge.WithLabelValues(label(labels, "model")).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "generation_latency_seconds":
		pm.generationLatency.WithLabelValues(
			label(labels, "provider"),
			label(labels, "model"),
			label(labels, "status"),
		).Observe(value)
	default:
		pm.genericHistogram.WithLabelValues(metric).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
