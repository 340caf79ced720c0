package detectors

import "fmt"

// Error represents a detector construction or configuration error
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("detector error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("detector error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
