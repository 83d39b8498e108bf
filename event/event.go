// Package event provides event definitions and an event bus for the
// execution cache. Progress reporters subscribe to observe per-item
// outcomes without polling the error maps.
package event

import (
	"time"
)

// EventType identifies a class of pipeline event.
type EventType string

const (
	// Item lifecycle events
	EventItemCached   EventType = "item.cached"
	EventItemExecuted EventType = "item.executed"
	EventItemSkipped  EventType = "item.skipped"
	EventItemFailed   EventType = "item.failed"

	// Checkpoint events
	EventCheckpointReset EventType = "checkpoint.reset"
)

// Event describes one observable occurrence in the execution cache.
type Event struct {
	Type      EventType      // event class
	JobID     string         // job the item belongs to
	ItemID    string         // idempotent id of the item
	ItemName  string         // display name of the item
	Timestamp time.Time      // when the event was created
	Data      map[string]any // additional payload
	Error     error          // failure detail (failure events only)
}

// NewEvent creates a new event with the given type and automatically sets
// the timestamp.
func NewEvent(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      make(map[string]any),
	}
}

// WithJobID sets the job ID on the event.
func (e Event) WithJobID(jobID string) Event {
	e.JobID = jobID
	return e
}

// WithItemID sets the idempotent item ID on the event.
func (e Event) WithItemID(itemID string) Event {
	e.ItemID = itemID
	return e
}

// WithItemName sets the item display name on the event.
func (e Event) WithItemName(itemName string) Event {
	e.ItemName = itemName
	return e
}

// WithError sets the error on the event.
func (e Event) WithError(err error) Event {
	e.Error = err
	return e
}

// WithData sets a key-value pair in the event data.
func (e Event) WithData(key string, value any) Event {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}
