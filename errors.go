package ice

import (
	"errors"
	"fmt"
	"strings"
)

// Executor errors
var (
	// ErrEmptyKey indicates an empty idempotent id was passed to Execute
	ErrEmptyKey = errors.New("idempotent id must not be empty")

	// ErrNotCached indicates a lookup for an id that was never cached
	ErrNotCached = errors.New("idempotent id not cached")
)

// UnknownKeyError is returned by CachedValue for an id that was never
// successfully cached. It carries the full set of known ids for diagnosis;
// hitting it is a programmer error, not a normal-flow outcome.
type UnknownKeyError struct {
	// Key is the id that was requested.
	Key string
	// Known is the sorted set of ids currently cached.
	Known []string
}

// Error implements the error interface.
func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s is not a known key, known keys: %s", e.Key, strings.Join(e.Known, ", "))
}

// Is reports true for ErrNotCached so callers can match with errors.Is.
func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrNotCached
}

// ResultTypeError is returned by the typed helpers when a cached value does
// not have the type the call site expects. Like UnknownKeyError, it signals
// a programmer error: two call sites disagree about the result type of an id.
type ResultTypeError struct {
	// Key is the id whose cached value was read.
	Key string
	// Want is the type the call site expected.
	Want string
	// Got is the type actually cached.
	Got string
}

// Error implements the error interface.
func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("cached value for %s has type %s, not %s", e.Key, e.Got, e.Want)
}
