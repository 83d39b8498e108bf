package retry

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrRetriesExhausted indicates an operation failed terminally after all
// allowed attempts.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Op is a fallible operation driven by the Caller.
type Op func(ctx context.Context) (any, error)

// TerminalError is the terminal outcome of an operation whose retries were
// exhausted. It carries the last cause, the number of attempts made, whether
// the failure is tolerable for the pipeline, and the stack captured at the
// point of exhaustion.
type TerminalError struct {
	// Cause is the error returned by the final attempt.
	Cause error
	// Attempts is the number of attempts made before giving up.
	Attempts int
	// CanSkip reports whether the pipeline may continue without the result.
	CanSkip bool
	// Stack is the goroutine stack captured when retries were exhausted.
	Stack string
}

// Error implements the error interface.
func (e *TerminalError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempt(s): %v", e.Attempts, e.Cause)
}

// Unwrap returns the final attempt's error.
func (e *TerminalError) Unwrap() error {
	return e.Cause
}

// Is reports true for ErrRetriesExhausted so callers can match with errors.Is.
func (e *TerminalError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// Caller drives operations to a terminal outcome under the strategies of a
// Library. Backoff waiting happens here; callers see only the final result
// or a *TerminalError.
type Caller struct {
	library *Library
}

// NewCaller creates a Caller backed by the given library.
// If library is nil, a library with the default strategy is used.
func NewCaller(library *Library) *Caller {
	if library == nil {
		library = NewLibrary(nil)
	}
	return &Caller{library: library}
}

// Do executes op, retrying per the strategy registered for category, until
// it succeeds or the strategy gives up. On exhaustion it returns a
// *TerminalError; on context cancellation between attempts it returns a
// non-skippable *TerminalError wrapping the context error.
func (c *Caller) Do(ctx context.Context, category string, op Op) (any, error) {
	strategy := c.library.StrategyFor(category)

	attempt := 0
	for {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		attempt++
		if !strategy.CanRetry(attempt) {
			return nil, terminal(err, attempt, strategy.CanSkip())
		}

		select {
		case <-time.After(strategy.Delay(attempt)):
		case <-ctx.Done():
			return nil, terminal(ctx.Err(), attempt, false)
		}
	}
}

// terminal builds a TerminalError with the stack captured at the call site.
func terminal(cause error, attempts int, canSkip bool) *TerminalError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	return &TerminalError{
		Cause:    cause,
		Attempts: attempts,
		CanSkip:  canSkip,
		Stack:    string(buf[:n]),
	}
}
