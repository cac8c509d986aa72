package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrMutationPanicked wraps a panic raised by the live graph during a mutation.
	ErrMutationPanicked = errors.New("live graph mutation panicked")

	// ErrAbsent may be wrapped by LiveGraph.Remove when the element is already
	// gone. The reconciler then counts the removal as done.
	ErrAbsent = errors.New("element not in live graph")

	// ErrAlreadyPresent may be wrapped by LiveGraph.Add when the element is
	// already drawn. The reconciler then counts the attach as done.
	ErrAlreadyPresent = errors.New("element already in live graph")
)

// Mutation operations.
const (
	OpAttach = "attach"
	OpUpdate = "update"
	OpRemove = "remove"
)

// MutationError records a live graph mutation that failed for one element.
type MutationError struct {
	Op        string // attach, update or remove
	ElementID string
	Kind      string
	Cause     error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.ElementID, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MutationError) Unwrap() error {
	return e.Cause
}
