// Package workflow implements the PR/FAQ generation and modification
// pipelines. A run plans its stages from the inputs that are present,
// executes them as a linear go-agents-orchestration state graph, and
// resolves FAQ questions concurrently against the source connectors.
package workflow

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/prfaq/internal/llm"
)

// Sentinel errors for workflow operations.
var (
	ErrInvalidInput    = errors.New("invalid workflow input")
	ErrStageFailed     = errors.New("workflow stage failed")
	ErrStateRegression = errors.New("workflow state regression")
	ErrMalformedOutput = errors.New("malformed model output")
)

// MapHTTPStatus maps workflow errors to HTTP status codes. A run that hit
// its deadline reports 504 even when the model call carried the error.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrChatFailed), errors.Is(err, ErrMalformedOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
