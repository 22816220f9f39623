package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransition       = errors.New("no transition available")
	ErrTransitionRejected = errors.New("transition rejected by guards")
)

// TransitionError names the state and event that failed to transition. It
// unwraps to ErrNoTransition or ErrTransitionRejected.
type TransitionError struct {
	From  string
	Event string
	err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state %q, event %q", e.err, e.From, e.Event)
}

func (e *TransitionError) Unwrap() error { return e.err }
