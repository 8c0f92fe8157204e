package layout

import "fmt"

// MeasureError is returned when a Measurer fails or returns an unusable result.
type MeasureError struct {
	Attempt int
	Message string
	Cause   error
}

func (e *MeasureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("measure error (attempt %d): %s: %v", e.Attempt, e.Message, e.Cause)
	}
	return fmt.Sprintf("measure error (attempt %d): %s", e.Attempt, e.Message)
}

func (e *MeasureError) Unwrap() error {
	return e.Cause
}
