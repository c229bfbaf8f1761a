package prfaq

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/prfaq/internal/extract"
	"github.com/JaimeStill/prfaq/internal/workflow"
	"github.com/JaimeStill/prfaq/pkg/formatting"
	"github.com/JaimeStill/prfaq/pkg/lifecycle"
)

// Sentinel errors for PR/FAQ request handling.
var (
	ErrInvalidBody  = errors.New("invalid request body")
	ErrNoFiles      = errors.New("no files uploaded")
	ErrTooManyFiles = errors.New("too many files")
	ErrFileTooLarge = errors.New("request exceeds maximum upload size")
)

func uploadLimitError(limit int64) error {
	return fmt.Errorf("%w of %s", ErrFileTooLarge, formatting.FormatBytes(limit, 0))
}

// MapHTTPStatus maps request, extraction, and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidBody), errors.Is(err, ErrNoFiles), errors.Is(err, ErrTooManyFiles):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, lifecycle.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, extract.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrTooManyPages),
		errors.Is(err, extract.ErrEmpty),
		errors.Is(err, extract.ErrExtract):
		return http.StatusUnprocessableEntity
	default:
		return workflow.MapHTTPStatus(err)
	}
}
