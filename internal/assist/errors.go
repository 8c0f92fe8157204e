package assist

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no completion client is configured.
var ErrUnavailable = errors.New("ai assistance is not configured")

// Error represents a failed completion call
type Error struct {
	Operation string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assist %s failed: %v", e.Operation, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
