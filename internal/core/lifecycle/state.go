// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
)

const (
	// StateCreated is the initial state: constructed, not started.
	StateCreated State = iota
	// StateStarting is entered by Start while goroutines are being launched.
	StateStarting
	// StateRunning means the component is processing work.
	StateRunning
	// StateStopping means Stop was called and goroutines are winding down.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal: start failed or a fatal error occurred.
	StateFailed
)

// ErrInvalidState is returned when a State value is not one of the defined states.
var ErrInvalidState = errors.New("invalid lifecycle state")

type (
	// State is the lifecycle state of a component.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

var stateNames = map[State]string{
	StateCreated:  "created",
	StateStarting: "starting",
	StateRunning:  "running",
	StateStopping: "stopping",
	StateStopped:  "stopped",
	StateFailed:   "failed",
}

// String returns the state name, or "unknown".
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid lifecycle state %d", e.Value)
}

// Unwrap returns ErrInvalidState for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// IsValid returns whether the State is one of the defined states,
// and a list of validation errors if it is not.
func (s State) IsValid() (bool, []error) {
	if _, ok := stateNames[s]; ok {
		return true, nil
	}
	return false, []error{&InvalidStateError{Value: s}}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
