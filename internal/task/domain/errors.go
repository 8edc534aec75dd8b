package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when a task id is unknown to the store
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidTransition is returned when accept/dismiss is called on a
	// task that is no longer pending. State never reverts.
	ErrInvalidTransition = errors.New("invalid task transition")
)

// TransportError wraps an I/O failure from an external adapter
// (email, chat, calendar or classifier).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err with the adapter operation that failed
func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
