// Package metrics provides the metrics interface for the execution cache.
package metrics

import (
	"time"
)

// Metrics defines the interface for collecting observability metrics.
// Implementations can use Prometheus, StatsD, or other metrics backends.
type Metrics interface {
	// Cache metrics
	CacheHit(category string)

	// Execution metrics
	ExecuteSucceeded(category string, duration time.Duration)
	ExecuteSkipped(category string)
	ExecuteFailed(category string)

	// Retry metrics
	RetriesExhausted(category string, attempts int)
}

// NoopMetrics is a no-op implementation of Metrics for testing or when
// metrics are disabled.
type NoopMetrics struct{}

var _ Metrics = (*NoopMetrics)(nil)

func (n *NoopMetrics) CacheHit(category string)                                  {}
func (n *NoopMetrics) ExecuteSucceeded(category string, duration time.Duration)  {}
func (n *NoopMetrics) ExecuteSkipped(category string)                            {}
func (n *NoopMetrics) ExecuteFailed(category string)                             {}
func (n *NoopMetrics) RetriesExhausted(category string, attempts int)            {}
