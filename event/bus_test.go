// Package event provides tests for the event bus implementation.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// ============================================================================
// Test Helpers
// ============================================================================

// mockLogger captures log messages for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, format)
}

func (l *mockLogger) MessageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// ============================================================================
// Unit Tests - Publish/Subscribe
// ============================================================================

func TestMemoryBus_Subscribe(t *testing.T) {
	bus := NewMemoryBus()

	handler := func(ctx context.Context, event Event) error {
		return nil
	}

	err := bus.Subscribe(EventItemExecuted, handler)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if bus.HandlerCount(EventItemExecuted) != 1 {
		t.Errorf("expected 1 handler, got %d", bus.HandlerCount(EventItemExecuted))
	}
}

func TestMemoryBus_PublishToSubscriber(t *testing.T) {
	bus := NewMemoryBus()

	var received Event
	var called bool

	handler := func(ctx context.Context, event Event) error {
		received = event
		called = true
		return nil
	}

	bus.Subscribe(EventItemSkipped, handler)

	event := NewEvent(EventItemSkipped).
		WithJobID("job-123").
		WithItemID("album-1").
		WithItemName("Summer Album")
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !called {
		t.Error("expected handler to be called")
	}
	if received.ItemID != "album-1" {
		t.Errorf("expected item id album-1, got %s", received.ItemID)
	}
	if received.JobID != "job-123" {
		t.Errorf("expected job id job-123, got %s", received.JobID)
	}
	if received.ItemName != "Summer Album" {
		t.Errorf("expected item name Summer Album, got %s", received.ItemName)
	}
	if received.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestMemoryBus_TypeFiltering(t *testing.T) {
	bus := NewMemoryBus()

	var skippedCount, failedCount atomic.Int64

	bus.Subscribe(EventItemSkipped, func(ctx context.Context, event Event) error {
		skippedCount.Add(1)
		return nil
	})
	bus.Subscribe(EventItemFailed, func(ctx context.Context, event Event) error {
		failedCount.Add(1)
		return nil
	})

	bus.Publish(context.Background(), NewEvent(EventItemSkipped))
	bus.Publish(context.Background(), NewEvent(EventItemSkipped))
	bus.Publish(context.Background(), NewEvent(EventItemFailed))

	if skippedCount.Load() != 2 {
		t.Errorf("expected 2 skipped events, got %d", skippedCount.Load())
	}
	if failedCount.Load() != 1 {
		t.Errorf("expected 1 failed event, got %d", failedCount.Load())
	}
}

func TestMemoryBus_SubscribeAll(t *testing.T) {
	bus := NewMemoryBus()

	var count atomic.Int64
	bus.SubscribeAll(func(ctx context.Context, event Event) error {
		count.Add(1)
		return nil
	})

	bus.Publish(context.Background(), NewEvent(EventItemCached))
	bus.Publish(context.Background(), NewEvent(EventItemExecuted))
	bus.Publish(context.Background(), NewEvent(EventCheckpointReset))

	if count.Load() != 3 {
		t.Errorf("expected 3 events, got %d", count.Load())
	}
	if bus.AllHandlerCount() != 1 {
		t.Errorf("expected 1 catch-all handler, got %d", bus.AllHandlerCount())
	}
}

// ============================================================================
// Unit Tests - Failure Isolation
// ============================================================================

func TestMemoryBus_HandlerErrorDoesNotPropagate(t *testing.T) {
	logger := &mockLogger{}
	bus := NewMemoryBus(WithLogger(logger))

	bus.Subscribe(EventItemFailed, func(ctx context.Context, event Event) error {
		return errors.New("handler failure")
	})

	err := bus.Publish(context.Background(), NewEvent(EventItemFailed).WithItemID("item-1"))
	if err != nil {
		t.Errorf("expected publish to succeed despite handler error, got %v", err)
	}
	if logger.MessageCount() != 1 {
		t.Errorf("expected 1 logged message, got %d", logger.MessageCount())
	}
}

func TestMemoryBus_HandlerPanicIsRecovered(t *testing.T) {
	logger := &mockLogger{}
	bus := NewMemoryBus(WithLogger(logger))

	bus.Subscribe(EventItemFailed, func(ctx context.Context, event Event) error {
		panic("handler panic")
	})

	var called bool
	bus.Subscribe(EventItemFailed, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), NewEvent(EventItemFailed))
	if err != nil {
		t.Errorf("expected publish to succeed despite handler panic, got %v", err)
	}
	if !called {
		t.Error("expected later handler to run after earlier panic")
	}
	if logger.MessageCount() != 1 {
		t.Errorf("expected 1 logged message, got %d", logger.MessageCount())
	}
}

// ============================================================================
// Unit Tests - Unsubscribe
// ============================================================================

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus()

	bus.Subscribe(EventItemSkipped, func(ctx context.Context, event Event) error {
		t.Error("expected handler to be removed")
		return nil
	})
	bus.Unsubscribe(EventItemSkipped)

	bus.Publish(context.Background(), NewEvent(EventItemSkipped))

	if bus.HandlerCount(EventItemSkipped) != 0 {
		t.Errorf("expected 0 handlers, got %d", bus.HandlerCount(EventItemSkipped))
	}
}

func TestMemoryBus_UnsubscribeAll(t *testing.T) {
	bus := NewMemoryBus()

	bus.Subscribe(EventItemSkipped, func(ctx context.Context, event Event) error { return nil })
	bus.SubscribeAll(func(ctx context.Context, event Event) error { return nil })
	bus.UnsubscribeAll()

	if bus.HandlerCount(EventItemSkipped) != 0 {
		t.Errorf("expected 0 handlers, got %d", bus.HandlerCount(EventItemSkipped))
	}
	if bus.AllHandlerCount() != 0 {
		t.Errorf("expected 0 catch-all handlers, got %d", bus.AllHandlerCount())
	}
}

// ============================================================================
// Unit Tests - Concurrency
// ============================================================================

func TestMemoryBus_ConcurrentPublish(t *testing.T) {
	bus := NewMemoryBus()

	var count atomic.Int64
	bus.SubscribeAll(func(ctx context.Context, event Event) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), NewEvent(EventItemExecuted))
		}()
	}
	wg.Wait()

	if count.Load() != 50 {
		t.Errorf("expected 50 events, got %d", count.Load())
	}
}

// ============================================================================
// Unit Tests - Event Builder
// ============================================================================

func TestEvent_Builder(t *testing.T) {
	err := errors.New("exec failed")
	e := NewEvent(EventItemFailed).
		WithJobID("job-1").
		WithItemID("photo-9").
		WithItemName("IMG_0009.jpg").
		WithError(err).
		WithData("attempts", 3)

	if e.Type != EventItemFailed {
		t.Errorf("expected type %s, got %s", EventItemFailed, e.Type)
	}
	if e.Error != err {
		t.Error("expected error to be set")
	}
	if e.Data["attempts"] != 3 {
		t.Errorf("expected attempts data 3, got %v", e.Data["attempts"])
	}
	if EventItemFailed.String() != "item.failed" {
		t.Errorf("unexpected event type string %s", EventItemFailed.String())
	}
}

// ============================================================================
// Unit Tests - NoopBus
// ============================================================================

func TestNoopBus(t *testing.T) {
	bus := NewNoopBus()

	if err := bus.Subscribe(EventItemCached, func(ctx context.Context, event Event) error {
		t.Error("noop bus must not deliver events")
		return nil
	}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := bus.SubscribeAll(func(ctx context.Context, event Event) error {
		t.Error("noop bus must not deliver events")
		return nil
	}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := bus.Publish(context.Background(), NewEvent(EventItemCached)); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
