package storage

import "fmt"

// Error reports a failed object storage operation.
type Error struct {
	Op    string
	Key   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// URLError is returned when a stored URL does not belong to the bucket.
type URLError struct {
	URL     string
	Message string
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid attachment url %q: %s", e.URL, e.Message)
}
