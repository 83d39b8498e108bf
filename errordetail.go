package ice

import "fmt"

// ErrorDetail records the most recent terminal failure for one idempotent id.
// It is captured once, at the point of retry exhaustion, and surfaced through
// Errors and RecentErrors for end-of-job and checkpoint reporting.
type ErrorDetail struct {
	// ID is the idempotent id of the failed item.
	ID string
	// Title is the display name of the failed item.
	Title string
	// Exception is the formatted diagnostic trace of the failure.
	Exception string
	// CanSkip reports whether the pipeline continued without this item.
	CanSkip bool
}

// String renders a log-friendly one-line summary; the full trace stays in
// Exception.
func (d ErrorDetail) String() string {
	return fmt.Sprintf("ErrorDetail{id=%s, title=%s, canSkip=%t}", d.ID, d.Title, d.CanSkip)
}
