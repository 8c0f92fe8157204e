// Package server provides the HTTP REST API for the resume tracker.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/documents"
	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/profile"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/schemas"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/jonathan/resume-tracker/internal/types"
)

// ErrRendererUnavailable is returned when the requested PDF renderer or
// measurer is not configured.
var ErrRendererUnavailable = errors.New("requested renderer is not configured")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource that is not backed by a service
// sentinel, such as a catalog posting.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr   *ErrValidation
		notFoundErr     *ErrNotFound
		schemaErr       *schemas.ValidationError
		fieldErrs       validator.ValidationErrors
		profileInput    *profile.InputError
		trackerInput    *tracker.InputError
		unsupportedType *documents.UnsupportedTypeError
		pdfErr          *pdfapi.Error
		assistErr       *assist.Error
		browserErr      *rendering.BrowserError
		measureErr      *layout.MeasureError
		profileStore    *profile.StoreError
		trackerStore    *tracker.StoreError
		renderErr       *RenderError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr), errors.As(err, &fieldErrs),
		errors.As(err, &profileInput), errors.As(err, &trackerInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrDuplicateSkill):
		return http.StatusConflict
	case errors.As(err, &notFoundErr), errors.Is(err, tracker.ErrJobNotFound), errors.Is(err, tracker.ErrAttachmentNotFound):
		return http.StatusNotFound
	case errors.As(err, &unsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, tracker.ErrStorageUnavailable), errors.Is(err, assist.ErrUnavailable), errors.Is(err, ErrRendererUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &pdfErr), errors.As(err, &assistErr), errors.As(err, &browserErr),
		errors.As(err, &measureErr), errors.As(err, &profileStore), errors.As(err, &trackerStore),
		errors.As(err, &renderErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
