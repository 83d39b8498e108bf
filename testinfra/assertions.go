package testinfra

import (
	"ice"
)

// TB is the subset of the testing interface the assertions need. Both
// *testing.T and *rapid.T satisfy it.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertCached asserts that id has a cached result.
func AssertCached(t TB, e *ice.Executor, id string) {
	t.Helper()
	if !e.IsCached(id) {
		t.Errorf("expected %s to be cached", id)
	}
}

// AssertNotCached asserts that id has no cached result.
func AssertNotCached(t TB, e *ice.Executor, id string) {
	t.Helper()
	if e.IsCached(id) {
		t.Errorf("expected %s not to be cached", id)
	}
}

// AssertCachedValue asserts that id resolves to the expected value.
func AssertCachedValue(t TB, e *ice.Executor, id string, expected any) {
	t.Helper()
	v, err := e.CachedValue(id)
	if err != nil {
		t.Errorf("expected cached value for %s, got %v", id, err)
		return
	}
	if v != expected {
		t.Errorf("cached value for %s: expected %v, got %v", id, expected, v)
	}
}

// AssertErrorRecorded asserts that the persistent ledger holds a failure
// for id with the expected skip flag.
func AssertErrorRecorded(t TB, e *ice.Executor, id string, canSkip bool) {
	t.Helper()
	for _, d := range e.Errors() {
		if d.ID == id {
			if d.CanSkip != canSkip {
				t.Errorf("error for %s: expected canSkip=%t, got %t", id, canSkip, d.CanSkip)
			}
			return
		}
	}
	t.Errorf("expected recorded error for %s", id)
}

// AssertNoErrorRecorded asserts that the persistent ledger holds no failure
// for id.
func AssertNoErrorRecorded(t TB, e *ice.Executor, id string) {
	t.Helper()
	for _, d := range e.Errors() {
		if d.ID == id {
			t.Errorf("expected no recorded error for %s, got %s", id, d)
			return
		}
	}
}

// AssertErrorCount asserts the size of the persistent error ledger.
func AssertErrorCount(t TB, e *ice.Executor, expected int) {
	t.Helper()
	if got := len(e.Errors()); got != expected {
		t.Errorf("expected %d recorded errors, got %d: %v", expected, got, e.Errors())
	}
}

// AssertExecutedOnce asserts that the tracked work for id ran exactly once.
func AssertExecutedOnce(t TB, tracker *WorkTracker, id string) {
	t.Helper()
	if got := tracker.Calls(id); got != 1 {
		t.Errorf("expected work for %s to run exactly once, ran %d times", id, got)
	}
}
