package event

import (
	"context"
	"log"
	"sync"
)

// Handler processes a published event.
type Handler func(ctx context.Context, event Event) error

// Bus is the event bus interface.
type Bus interface {
	// Publish delivers an event to all subscribed handlers.
	Publish(ctx context.Context, event Event) error
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler Handler) error
	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler Handler) error
}

// MemoryBus is an in-memory Bus implementation.
type MemoryBus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	logger      Logger
}

// Logger is the logging interface used by the bus for handler failures.
type Logger interface {
	Printf(format string, v ...any)
}

// defaultLogger logs through the standard log package.
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// MemoryBusOption configures a MemoryBus.
type MemoryBusOption func(*MemoryBus)

// WithLogger sets a custom logger for the bus.
func WithLogger(logger Logger) MemoryBusOption {
	return func(b *MemoryBus) {
		b.logger = logger
	}
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus(opts ...MemoryBusOption) *MemoryBus {
	bus := &MemoryBus{
		handlers:    make(map[EventType][]Handler),
		allHandlers: make([]Handler, 0),
		logger:      &defaultLogger{},
	}

	for _, opt := range opts {
		opt(bus)
	}

	return bus
}

// Publish delivers an event to all subscribed handlers.
// Handler errors are logged but do not block the pipeline.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	// Copy handlers to avoid holding the lock during execution
	typeHandlers := make([]Handler, len(b.handlers[event.Type]))
	copy(typeHandlers, b.handlers[event.Type])
	allHandlers := make([]Handler, len(b.allHandlers))
	copy(allHandlers, b.allHandlers)
	b.mu.RUnlock()

	for _, handler := range typeHandlers {
		b.executeHandler(ctx, handler, event)
	}

	for _, handler := range allHandlers {
		b.executeHandler(ctx, handler, event)
	}

	return nil
}

// executeHandler runs a single handler and logs any errors.
// Errors and panics never propagate into item execution.
func (b *MemoryBus) executeHandler(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("[EventBus] handler panic for event %s: %v", event.Type, r)
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.logger.Printf("[EventBus] handler error for event %s (item=%s): %v", event.Type, event.ItemID, err)
	}
}

// Subscribe registers a handler for a specific event type.
// Multiple handlers can be registered for the same event type.
func (b *MemoryBus) Subscribe(eventType EventType, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *MemoryBus) SubscribeAll(handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Unsubscribe removes all handlers for a specific event type.
// This is useful for testing and cleanup.
func (b *MemoryBus) Unsubscribe(eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, eventType)
}

// UnsubscribeAll removes every handler, type-specific and catch-all alike.
func (b *MemoryBus) UnsubscribeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = make(map[EventType][]Handler)
	b.allHandlers = make([]Handler, 0)
}

// HandlerCount returns the number of handlers for a specific event type.
func (b *MemoryBus) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[eventType])
}

// AllHandlerCount returns the number of catch-all handlers.
func (b *MemoryBus) AllHandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.allHandlers)
}

// NoopBus discards all events; used when eventing is disabled.
type NoopBus struct{}

// NewNoopBus creates a new no-op event bus.
func NewNoopBus() *NoopBus {
	return &NoopBus{}
}

// Publish does nothing.
func (b *NoopBus) Publish(_ context.Context, _ Event) error {
	return nil
}

// Subscribe does nothing.
func (b *NoopBus) Subscribe(_ EventType, _ Handler) error {
	return nil
}

// SubscribeAll does nothing.
func (b *NoopBus) SubscribeAll(_ Handler) error {
	return nil
}
