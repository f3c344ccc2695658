package listing

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the lifecycle service.
var (
	// ErrNotFound covers both missing listings and listings the caller is not
	// allowed to see, so existence is never leaked.
	ErrNotFound = errors.New("listing not found")
	// ErrConflict means a concurrent transition won the conditional update.
	// Callers may re-fetch and retry.
	ErrConflict = errors.New("listing was modified concurrently")
	// ErrForbidden means the actor's role does not permit the transition.
	ErrForbidden = errors.New("operation not permitted")
)

// ValidationError reports malformed or missing input. Never retried.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// QuotaExceededError reports that the owner is at the active-listing limit.
type QuotaExceededError struct {
	Active int64
	Limit  int64
}

func (e QuotaExceededError) Error() string {
	return fmt.Sprintf("maximum listing limit reached (%d/%d); close or delete an existing listing first", e.Active, e.Limit)
}

// InvalidStateError reports a transition attempted from a state that does not
// permit it, e.g. editing a sold listing.
type InvalidStateError struct {
	Status string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("listing in status %q does not permit this operation", e.Status)
}
