package metrics

import (
	"testing"
	"time"
)

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var m Metrics = &NoopMetrics{}

	// All calls must be safe no-ops.
	m.CacheHit("photos")
	m.ExecuteSucceeded("photos", time.Second)
	m.ExecuteSkipped("photos")
	m.ExecuteFailed("photos")
	m.RetriesExhausted("photos", 3)
}
