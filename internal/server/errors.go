package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/portfolio-agent/internal/fetch"
	"github.com/jonathan/portfolio-agent/internal/pipeline"
	"github.com/jonathan/portfolio-agent/internal/projects"
)

// StatusClientClosedRequest is reported when the client went away mid-run.
const StatusClientClosedRequest = 499

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorResponse is the body of a failed pipeline request.
type ErrorResponse struct {
	Error string         `json:"error"`
	Stage pipeline.Stage `json:"stage,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		providerErr   *fetch.ProviderError
		modelErr      *projects.ModelError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &providerErr), errors.As(err, &modelErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response body for err, naming the failed stage when known.
func errorBody(err error) ErrorResponse {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return ErrorResponse{Error: stageErr.Err.Error(), Stage: stageErr.Stage}
	}
	return ErrorResponse{Error: err.Error()}
}
