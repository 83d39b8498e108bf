// Package prometheus provides a Prometheus implementation of the metrics interface.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ice/metrics"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	// Cache metrics
	cacheHitTotal *prometheus.CounterVec

	// Execution metrics
	executeSucceededTotal *prometheus.CounterVec
	executeSkippedTotal   *prometheus.CounterVec
	executeFailedTotal    *prometheus.CounterVec
	executeDuration       *prometheus.HistogramVec

	// Retry metrics
	retriesExhaustedTotal *prometheus.CounterVec
	retryAttempts         *prometheus.HistogramVec
}

var _ metrics.Metrics = (*PrometheusMetrics)(nil)

// Config holds configuration for PrometheusMetrics.
type Config struct {
	// Namespace is the prefix for all metrics (e.g., "ice")
	Namespace string
	// Subsystem is an optional subsystem name
	Subsystem string
	// Registry is the Prometheus registry to use. If nil, the default registry is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Namespace: "ice",
		Subsystem: "",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// New creates a new PrometheusMetrics instance with the given configuration.
func New(cfg Config) *PrometheusMetrics {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)

	return &PrometheusMetrics{
		// Cache metrics
		cacheHitTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_hit_total",
			Help:      "Total number of executions answered from the cache",
		}, []string{"category"}),

		// Execution metrics
		executeSucceededTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execute_succeeded_total",
			Help:      "Total number of items executed successfully",
		}, []string{"category"}),

		executeSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execute_skipped_total",
			Help:      "Total number of items skipped after a tolerable terminal failure",
		}, []string{"category"}),

		executeFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execute_failed_total",
			Help:      "Total number of items that failed fatally",
		}, []string{"category"}),

		executeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "execute_duration_seconds",
			Help:      "Successful item execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}, []string{"category"}),

		// Retry metrics
		retriesExhaustedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retries_exhausted_total",
			Help:      "Total number of operations whose retries were exhausted",
		}, []string{"category"}),

		retryAttempts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retry_attempts",
			Help:      "Attempts made before an operation was abandoned",
			Buckets:   prometheus.LinearBuckets(1, 1, 10), // 1 to 10 attempts
		}, []string{"category"}),
	}
}

// Cache metrics

func (p *PrometheusMetrics) CacheHit(category string) {
	p.cacheHitTotal.WithLabelValues(category).Inc()
}

// Execution metrics

func (p *PrometheusMetrics) ExecuteSucceeded(category string, duration time.Duration) {
	p.executeSucceededTotal.WithLabelValues(category).Inc()
	p.executeDuration.WithLabelValues(category).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ExecuteSkipped(category string) {
	p.executeSkippedTotal.WithLabelValues(category).Inc()
}

func (p *PrometheusMetrics) ExecuteFailed(category string) {
	p.executeFailedTotal.WithLabelValues(category).Inc()
}

// Retry metrics

func (p *PrometheusMetrics) RetriesExhausted(category string, attempts int) {
	p.retriesExhaustedTotal.WithLabelValues(category).Inc()
	p.retryAttempts.WithLabelValues(category).Observe(float64(attempts))
}
