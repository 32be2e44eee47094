package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: at least one source state is required")
	ErrInvalidState      = errors.New("invalid state: initial state cannot be empty")

	// ErrRejected matches every TransitionError.
	ErrRejected = errors.New("event rejected")
	// ErrTerminal matches a TransitionError raised in a terminal state.
	ErrTerminal = errors.New("machine is in a terminal state")
)

// TransitionError reports an event the machine refused. Event is empty when
// the rejected call was Reset.
type TransitionError struct {
	State    string
	Event    string
	Terminal bool
}

func (e *TransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("statemachine: state %q is terminal", e.State)
	}
	return fmt.Sprintf("statemachine: no transition from %q on %q", e.State, e.Event)
}

// Is lets errors.Is match ErrRejected, and ErrTerminal for terminal states.
func (e *TransitionError) Is(target error) bool {
	return target == ErrRejected || (e.Terminal && target == ErrTerminal)
}

// IsNoTransitionAvailableError reports whether err rejected an event that has
// no transition from a non-terminal state.
func IsNoTransitionAvailableError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e) && !e.Terminal
}

// IsTerminalStateError reports whether err was raised in a terminal state.
func IsTerminalStateError(err error) bool {
	return errors.Is(err, ErrTerminal)
}
