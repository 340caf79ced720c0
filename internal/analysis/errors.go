package analysis

import (
	"errors"
	"fmt"
)

// ErrPipelineFailed is returned when aggregation itself fails. Individual
// detector failures never produce it.
var ErrPipelineFailed = errors.New("analysis pipeline failed")

// DetectorPanicError records a detector that panicked during a scan.
type DetectorPanicError struct {
	Detector string
	Value    any
}

func (e *DetectorPanicError) Error() string {
	return fmt.Sprintf("detector %q panicked: %v", e.Detector, e.Value)
}
