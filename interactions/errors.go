package interactions

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed or out-of-bound requests
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled is returned when the caller's context ends mid-resolution
	ErrCancelled = errors.New("resolution cancelled")

	// ErrDataAccess is returned when the reference store could not be queried
	ErrDataAccess = errors.New("data access failure")

	// ErrDrugNotFound is returned by LookupDrug for an unknown code
	ErrDrugNotFound = errors.New("drug not found")
)

// InputError describes which token or constraint of a request failed validation.
type InputError struct {
	Field  string `json:"field"`
	Token  string `json:"token,omitempty"`
	Reason string `json:"reason"`
}

func (e *InputError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Token, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// classify tags a store error. A context that is already done always wins so that a
// store reporting a torn-down connection is still seen as a cancellation.
func classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return cancelled(err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDataAccess, op, err)
}
