// Package checkpoint provides the checkpoint reporter: a background worker
// that periodically drains the executor's recent-error buffer, surfaces the
// failures to operators, and resets the buffer so the next interval reports
// only new failures.
package checkpoint

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ice"
	"ice/event"
)

// ErrorSource is the slice of the executor the reporter consumes: the
// recent-failure buffer and its reset. *ice.Executor satisfies it.
type ErrorSource interface {
	RecentErrors() []ice.ErrorDetail
	ResetRecentErrors()
}

// Config holds the configuration for the checkpoint reporter.
type Config struct {
	// Interval is the time between checkpoint drains.
	Interval time.Duration
}

// DefaultConfig returns the default configuration for the reporter.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
	}
}

// Logger defines the logging interface.
type Logger interface {
	Printf(format string, v ...any)
}

// defaultLogger is the default logger implementation.
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf("[CheckpointReporter] "+format, v...)
}

// Reporter periodically drains recent failures from an ErrorSource. Each
// drained failure is logged and a checkpoint event carrying the failure
// count is published, then the buffer is reset.
type Reporter struct {
	source ErrorSource
	events event.Bus
	config Config
	logger Logger
	jobID  string

	// State
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex

	// Metrics
	checkpointCount int64
	reportedCount   int64
	metricsMu       sync.RWMutex
}

// ReporterOption is a function that configures the Reporter.
type ReporterOption func(*Reporter)

// WithEventBus sets the event bus for the reporter.
func WithEventBus(b event.Bus) ReporterOption {
	return func(r *Reporter) {
		r.events = b
	}
}

// WithConfig sets the configuration for the reporter.
func WithConfig(cfg Config) ReporterOption {
	return func(r *Reporter) {
		r.config = cfg
	}
}

// WithLogger sets the logger for the reporter.
func WithLogger(l Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = l
	}
}

// WithJobID stamps published checkpoint events with the job identifier.
func WithJobID(jobID string) ReporterOption {
	return func(r *Reporter) {
		r.jobID = jobID
	}
}

// NewReporter creates a checkpoint reporter draining the given source.
func NewReporter(source ErrorSource, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		source: source,
		events: event.NewNoopBus(),
		config: DefaultConfig(),
		logger: &defaultLogger{},
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start starts the reporter. It runs in the background and drains the
// recent-error buffer on every interval.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("checkpoint reporter already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)

	r.logger.Printf("started with interval=%v", r.config.Interval)
	return nil
}

// Stop stops the reporter gracefully. A final drain runs before returning
// so failures recorded after the last tick are not lost.
func (r *Reporter) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.drain(ctx)
	r.logger.Printf("stopped")
}

// IsRunning returns true if the reporter is running.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// run is the main loop of the reporter.
func (r *Reporter) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.drain(ctx)
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain performs a single checkpoint: report, publish, reset.
func (r *Reporter) drain(ctx context.Context) {
	details := r.source.RecentErrors()
	if len(details) == 0 {
		return
	}

	for _, detail := range details {
		r.logger.Printf("failed since last checkpoint: %s", detail)
	}

	r.publishEvent(ctx, event.NewEvent(event.EventCheckpointReset).
		WithJobID(r.jobID).
		WithData("failures", len(details)))

	r.source.ResetRecentErrors()

	r.metricsMu.Lock()
	r.checkpointCount++
	r.reportedCount += int64(len(details))
	r.metricsMu.Unlock()
}

// publishEvent publishes an event to the event bus.
func (r *Reporter) publishEvent(ctx context.Context, e event.Event) {
	if r.events != nil {
		r.events.Publish(ctx, e)
	}
}

// Stats holds the running totals of the reporter.
type Stats struct {
	CheckpointCount int64
	ReportedCount   int64
	IsRunning       bool
}

// Stats returns the current statistics of the reporter.
func (r *Reporter) Stats() Stats {
	r.metricsMu.RLock()
	defer r.metricsMu.RUnlock()
	return Stats{
		CheckpointCount: r.checkpointCount,
		ReportedCount:   r.reportedCount,
		IsRunning:       r.IsRunning(),
	}
}

// DrainOnce performs a single checkpoint drain synchronously.
// This is useful for testing and for end-of-job reporting.
func (r *Reporter) DrainOnce(ctx context.Context) {
	r.drain(ctx)
}
