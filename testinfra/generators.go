// Package testinfra provides test infrastructure for validating the
// execution cache against randomized import pipelines.
package testinfra

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pgregory.net/rapid"
)

// Outcome describes how a planned item behaves when its work runs.
type Outcome int

const (
	// OutcomeSucceed completes on the first attempt.
	OutcomeSucceed Outcome = iota
	// OutcomeFlaky fails once, then succeeds on retry.
	OutcomeFlaky
	// OutcomeFail fails on every attempt.
	OutcomeFail
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceed:
		return "succeed"
	case OutcomeFlaky:
		return "flaky"
	case OutcomeFail:
		return "fail"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PlannedItem is one item of a generated import plan.
type PlannedItem struct {
	ID      string
	Name    string
	Outcome Outcome
}

// Plan is a generated import batch plus the number of times the whole batch
// is replayed through the executor.
type Plan struct {
	Items   []PlannedItem
	Replays int
}

// ItemIDGen generates unique short item ids.
func ItemIDGen() *rapid.Generator[string] {
	return rapid.StringMatching(`^item-[a-z0-9]{6}$`)
}

// OutcomeGen generates item outcomes, biased toward success the way real
// import batches are.
func OutcomeGen() *rapid.Generator[Outcome] {
	return rapid.OneOf(
		rapid.Just(OutcomeSucceed),
		rapid.Just(OutcomeSucceed),
		rapid.Just(OutcomeFlaky),
		rapid.Just(OutcomeFail),
	)
}

// PlanGen generates an import plan with unique item ids.
func PlanGen() *rapid.Generator[Plan] {
	return rapid.Custom(func(t *rapid.T) Plan {
		ids := rapid.SliceOfNDistinct(ItemIDGen(), 1, 15, rapid.ID[string]).Draw(t, "ids")

		items := make([]PlannedItem, len(ids))
		for i, id := range ids {
			items[i] = PlannedItem{
				ID:      id,
				Name:    "planned " + id,
				Outcome: OutcomeGen().Draw(t, "outcome"),
			}
		}

		return Plan{
			Items:   items,
			Replays: rapid.IntRange(1, 3).Draw(t, "replays"),
		}
	})
}

// WorkTracker counts work-function invocations per item id and drives the
// planned outcome. Safe for concurrent use.
type WorkTracker struct {
	mu    sync.Mutex
	calls map[string]int
}

// NewWorkTracker creates an empty tracker.
func NewWorkTracker() *WorkTracker {
	return &WorkTracker{calls: make(map[string]int)}
}

// Work returns a work function for the planned item that records every
// invocation and behaves per the item's outcome.
func (w *WorkTracker) Work(item PlannedItem) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		w.mu.Lock()
		w.calls[item.ID]++
		n := w.calls[item.ID]
		w.mu.Unlock()

		switch item.Outcome {
		case OutcomeSucceed:
			return "result-" + item.ID, nil
		case OutcomeFlaky:
			if n == 1 {
				return nil, errors.New("transient failure")
			}
			return "result-" + item.ID, nil
		default:
			return nil, errors.New("permanent failure")
		}
	}
}

// Calls returns the number of work invocations recorded for id.
func (w *WorkTracker) Calls(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[id]
}
