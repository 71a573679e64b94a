// SPDX-License-Identifier: MPL-2.0

package request

import (
	"errors"
	"fmt"
)

const (
	// StateNotMatched indicates no command has been attached yet.
	StateNotMatched State = iota
	// StateMatched indicates a command was attached.
	StateMatched
	// StateBound indicates arguments were bound.
	StateBound
	// StateExecuted indicates a result was stored.
	StateExecuted
	// StateCompleted is terminal: the pipeline finished with a command and a result.
	StateCompleted
	// StateFaulted is terminal: the request hit a hard fault.
	StateFaulted
)

var (
	// ErrInvalidState is returned when a State value is not one of the defined lifecycle states.
	ErrInvalidState = errors.New("invalid request state")

	// ErrInvalidTransition is returned when a lifecycle transition is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid request state transition")
)

type (
	// State represents the lifecycle state of a request.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}

	// TransitionError reports a rejected lifecycle transition.
	// It wraps ErrInvalidTransition for errors.Is() compatibility.
	TransitionError struct {
		From State
		To   State
	}
)

// String returns a human-readable representation of the request state.
func (s State) String() string {
	switch s {
	case StateNotMatched:
		return "not_matched"
	case StateMatched:
		return "matched"
	case StateBound:
		return "bound"
	case StateExecuted:
		return "executed"
	case StateCompleted:
		return "completed"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid request state %d (valid: 0=not_matched, 1=matched, 2=bound, 3=executed, 4=completed, 5=faulted)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Error implements the error interface for TransitionError.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %s to %s", e.From, e.To)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Validate returns nil if the State is one of the defined lifecycle states,
// or an error wrapping ErrInvalidState if it is not.
func (s State) Validate() error {
	switch s {
	case StateNotMatched, StateMatched, StateBound, StateExecuted, StateCompleted, StateFaulted:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal returns true if the state is a terminal state (Completed or Faulted).
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFaulted
}
