package scheduler

import (
	"errors"
	"fmt"
)

// State is the observable phase of a session.
type State string

// Session states. A session that has delivered or failed rests in StateIdle.
const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateRunning    State = "running"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// AnalysisError is a failed run. It is recoverable: the session stays usable
// and the previous result remains current.
type AnalysisError struct {
	Generation uint64
	Cause      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis generation %d failed: %v", e.Generation, e.Cause)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
