// Package ice provides an idempotent, retrying execution cache for
// multi-step import pipelines. Each logical item is executed at most once
// per job: re-entrant calls for an already-executed id return the cached
// result, uncached ids run through a retry collaborator, and terminal
// failures are recorded for skip-and-continue decisions and reporting.
package ice

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ice/event"
	"ice/lock"
	"ice/metrics"
	"ice/retry"
	"ice/tracing"
)

// Work is one fallible unit of work, executed at most once per idempotent id.
type Work func(ctx context.Context) (any, error)

// Retryer drives an operation to a terminal outcome. It owns all backoff and
// retry behavior; the executor sees only the final result or the terminal
// error. A terminal failure is reported as a *retry.TerminalError carrying
// the skip flag; any other error is treated as fatal and non-skippable.
type Retryer interface {
	Do(ctx context.Context, category string, op retry.Op) (any, error)
}

// Executor is a per-job in-memory idempotent execution cache.
//
// It guarantees at-most-one execution in flight per id: concurrent callers
// for the same id serialize on a keyed lock, and once an id is cached its
// work is never invoked again for the lifetime of the executor. Distinct ids
// execute concurrently.
type Executor struct {
	mu     sync.RWMutex
	known  map[string]any
	errs   map[string]ErrorDetail
	recent map[string]ErrorDetail
	jobID  uuid.UUID

	// inflight closes the check-then-act race per id
	inflight *lock.Keyed

	// Collaborators
	retryer Retryer
	monitor Monitor
	events  event.Bus
	metrics metrics.Metrics
	tracer  tracing.Tracer

	// category selects the retry strategy and labels metrics
	category string
}

// ExecutorOption is a function that configures the Executor.
type ExecutorOption func(*Executor)

// WithRetryer sets the retry collaborator.
func WithRetryer(r Retryer) ExecutorOption {
	return func(e *Executor) {
		e.retryer = r
	}
}

// WithMonitor sets the monitor receiving debug and severe log lines.
func WithMonitor(m Monitor) ExecutorOption {
	return func(e *Executor) {
		e.monitor = m
	}
}

// WithEventBus sets the event bus for item lifecycle events.
func WithEventBus(b event.Bus) ExecutorOption {
	return func(e *Executor) {
		e.events = b
	}
}

// WithMetrics sets the metrics backend.
func WithMetrics(m metrics.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithTracer sets the tracer for per-execution spans.
func WithTracer(t tracing.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = t
	}
}

// WithCategory sets the operation category used for retry strategy selection
// and metric labels.
func WithCategory(category string) ExecutorOption {
	return func(e *Executor) {
		e.category = category
	}
}

// WithJobID binds the job identity at construction time.
func WithJobID(jobID uuid.UUID) ExecutorOption {
	return func(e *Executor) {
		e.jobID = jobID
	}
}

// New creates a new Executor with the given options. Collaborators default
// to no-op implementations and the retryer to the default exponential
// strategy, so a bare New() is usable immediately.
func New(opts ...ExecutorOption) *Executor {
	e := &Executor{
		known:    make(map[string]any),
		errs:     make(map[string]ErrorDetail),
		recent:   make(map[string]ErrorDetail),
		inflight: lock.NewKeyed(),
		retryer:  retry.NewCaller(nil),
		monitor:  &NoopMonitor{},
		events:   event.NewNoopBus(),
		metrics:  &metrics.NoopMetrics{},
		tracer:   &tracing.NoopTracer{},
		category: "default",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetJobID binds the job-scoped identifier used to prefix log messages.
// It carries no correctness weight; it exists so operators can grep one
// job's lines out of interleaved pipeline logs.
func (e *Executor) SetJobID(jobID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobID = jobID
}

// JobID returns the bound job identifier, or uuid.Nil when unbound.
func (e *Executor) JobID() uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.jobID
}

// Execute returns the cached result for id, or runs work through the retry
// collaborator and records the outcome.
//
// The bool return reports whether a value is present: (value, true, nil) on
// a cache hit or success, (nil, false, nil) when the item failed terminally
// but tolerably and was skipped, and (nil, false, err) when the failure was
// fatal. Skipped items are never cached; skip state lives only in the error
// maps.
func (e *Executor) Execute(ctx context.Context, id, itemName string, work Work) (any, bool, error) {
	if id == "" {
		return nil, false, ErrEmptyKey
	}

	ctx, span := e.tracer.StartExecute(ctx, e.JobID().String(), id, itemName)
	defer span.End()

	// One execution in flight per id; duplicate concurrent callers block
	// here and then observe the cached result.
	e.inflight.Lock(id)
	defer e.inflight.Unlock(id)

	if v, ok := e.lookup(id); ok {
		e.monitor.Debug(func() string {
			return e.jobPrefix() + fmt.Sprintf("using cached key %s from cache for %s", id, itemName)
		})
		e.metrics.CacheHit(e.category)
		span.AddEvent("cache.hit")
		e.publish(ctx, event.NewEvent(event.EventItemCached).
			WithJobID(e.JobID().String()).
			WithItemID(id).
			WithItemName(itemName))
		return v, true, nil
	}

	start := time.Now()
	result, err := e.retryer.Do(ctx, e.category, retry.Op(work))
	if err == nil {
		e.mu.Lock()
		e.known[id] = result
		// A previous failure for this id is superseded by the success.
		delete(e.errs, id)
		e.mu.Unlock()

		e.monitor.Debug(func() string {
			return e.jobPrefix() + fmt.Sprintf("storing key %s in cache for %s", id, itemName)
		})
		e.metrics.ExecuteSucceeded(e.category, time.Since(start))
		e.publish(ctx, event.NewEvent(event.EventItemExecuted).
			WithJobID(e.JobID().String()).
			WithItemID(id).
			WithItemName(itemName))
		return result, true, nil
	}

	detail, attempts := e.recordFailure(id, itemName, err)

	e.metrics.RetriesExhausted(e.category, attempts)
	span.SetError(err)

	if detail.CanSkip {
		e.monitor.Severe(func() string {
			return e.jobPrefix() + "problem with importing item, but skipping: " + detail.String()
		})
		e.metrics.ExecuteSkipped(e.category)
		e.publish(ctx, event.NewEvent(event.EventItemSkipped).
			WithJobID(e.JobID().String()).
			WithItemID(id).
			WithItemName(itemName).
			WithError(err))
		return nil, false, nil
	}

	e.monitor.Severe(func() string {
		return e.jobPrefix() + "problem with importing item, cannot be skipped: " + detail.String()
	})
	e.metrics.ExecuteFailed(e.category)
	e.publish(ctx, event.NewEvent(event.EventItemFailed).
		WithJobID(e.JobID().String()).
		WithItemID(id).
		WithItemName(itemName).
		WithError(err))
	return nil, false, err
}

// ExecuteAndSwallow is Execute with the fatal path erased: any propagated
// failure becomes an absent result. All logging and recording already
// happened inside Execute, so nothing is duplicated here. Callers must treat
// a false return as "item not available this run".
func (e *Executor) ExecuteAndSwallow(ctx context.Context, id, itemName string, work Work) (any, bool) {
	v, ok, err := e.Execute(ctx, id, itemName, work)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// CachedValue reads the cached result for id directly. An unknown id returns
// a *UnknownKeyError naming the id and the full known-id set; callers must
// only use this after confirming membership or being certain of prior
// success.
func (e *Executor) CachedValue(id string) (any, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if v, ok := e.known[id]; ok {
		return v, nil
	}

	known := make([]string, 0, len(e.known))
	for k := range e.known {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, &UnknownKeyError{Key: id, Known: known}
}

// IsCached reports whether id has a cached result. No side effects.
func (e *Executor) IsCached(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.known[id]
	return ok
}

// Errors returns a snapshot of all recorded persistent failures, one per id,
// latest failure winning, ordered by id. Mutating the returned slice does
// not affect the executor.
func (e *Executor) Errors() []ErrorDetail {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshot(e.errs)
}

// RecentErrors returns a snapshot of failures recorded since the last
// ResetRecentErrors call, ordered by id.
func (e *Executor) RecentErrors() []ErrorDetail {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshot(e.recent)
}

// ResetRecentErrors clears the recent-error buffer. The persistent error log
// is untouched, so checkpoint reporting can consume incremental failures
// without losing the full-job ledger.
func (e *Executor) ResetRecentErrors() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recent = make(map[string]ErrorDetail)
}

// lookup reads the cache under the read lock.
func (e *Executor) lookup(id string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.known[id]
	return v, ok
}

// recordFailure captures the terminal failure into both error maps and
// returns the recorded detail and the attempt count reported by the retryer.
func (e *Executor) recordFailure(id, itemName string, err error) (ErrorDetail, int) {
	canSkip := false
	attempts := 1
	trace := err.Error()

	var te *retry.TerminalError
	if errors.As(err, &te) {
		canSkip = te.CanSkip
		attempts = te.Attempts
		trace = fmt.Sprintf("%v\n%s", te, te.Stack)
	}

	detail := ErrorDetail{
		ID:        id,
		Title:     itemName,
		Exception: trace,
		CanSkip:   canSkip,
	}

	e.mu.Lock()
	e.errs[id] = detail
	e.recent[id] = detail
	e.mu.Unlock()

	return detail, attempts
}

// jobPrefix renders the log prefix for the bound job.
func (e *Executor) jobPrefix() string {
	return "Job " + e.JobID().String() + ": "
}

// publish sends an event to the bus.
func (e *Executor) publish(ctx context.Context, ev event.Event) {
	if e.events != nil {
		e.events.Publish(ctx, ev)
	}
}

// snapshot copies error details out of a map, sorted by id.
func snapshot(m map[string]ErrorDetail) []ErrorDetail {
	out := make([]ErrorDetail, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Execute is the typed variant of Executor.Execute. A cached value whose
// type does not match T is reported as a *ResultTypeError rather than being
// cast silently.
func Execute[T any](ctx context.Context, e *Executor, id, itemName string, work func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T

	v, ok, err := e.Execute(ctx, id, itemName, func(ctx context.Context) (any, error) {
		return work(ctx)
	})
	if err != nil || !ok {
		return zero, false, err
	}

	typed, castOK := v.(T)
	if !castOK {
		return zero, false, typeError[T](id, v)
	}
	return typed, true, nil
}

// ExecuteAndSwallow is the typed variant of Executor.ExecuteAndSwallow.
// Fatal failures and type mismatches both surface as an absent result.
func ExecuteAndSwallow[T any](ctx context.Context, e *Executor, id, itemName string, work func(ctx context.Context) (T, error)) (T, bool) {
	v, ok, err := Execute(ctx, e, id, itemName, work)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, ok
}

// CachedValueAs is the typed variant of Executor.CachedValue.
func CachedValueAs[T any](e *Executor, id string) (T, error) {
	var zero T

	v, err := e.CachedValue(id)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, typeError[T](id, v)
	}
	return typed, nil
}

// typeError builds a ResultTypeError describing the expected and actual types.
func typeError[T any](id string, got any) *ResultTypeError {
	return &ResultTypeError{
		Key:  id,
		Want: reflect.TypeOf((*T)(nil)).Elem().String(),
		Got:  fmt.Sprintf("%T", got),
	}
}
