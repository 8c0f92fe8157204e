package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job does not exist for the user.
	ErrJobNotFound = errors.New("job not found")
	// ErrAttachmentNotFound is returned when a job has no attachment with the given ID.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrStorageUnavailable is returned by attachment operations when no object store is configured.
	ErrStorageUnavailable = errors.New("attachment storage is not configured")
)

// InputError reports job input that fails validation.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError wraps a failure of the job store or the object store.
type StoreError struct {
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
