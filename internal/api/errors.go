// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/labstack/echo/v4"
)

// ShowErrorDetails controls whether unexpected errors expose their message
// in the response body.
var ShowErrorDetails = true

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromDomainError maps errors returned by the model, view and compiler
// layers onto API errors. Unrecognized errors become 500s.
func FromDomainError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, view.ErrViewNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "VIEW_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, compiler.ErrUnknownAnalyzer):
		return &APIError{Status: http.StatusNotFound, Code: "ANALYZER_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, models.ErrInvalidTypeFormat),
		errors.Is(err, view.ErrUnknownLayout),
		errors.Is(err, view.ErrNoLayout):
		return NewBadRequestError(err.Error(), nil)
	case errors.Is(err, models.ErrEmptyModelData),
		errors.Is(err, models.ErrMultipleSystemSections),
		errors.Is(err, models.ErrMalformedTypeReference),
		errors.Is(err, models.ErrPortResolution):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "INVALID_MODEL",
			Message: "compiler output could not be loaded",
			Details: err.Error(),
		}
	case errors.Is(err, models.ErrExternalProcessFailure):
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "EXTERNAL_PROCESS_FAILED",
			Message: "external process failed",
			Details: err.Error(),
		}
	case errors.Is(err, models.ErrFileWriteFailure):
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "WRITE_FAILED",
			Message: "model could not be written",
			Details: err.Error(),
		}
	}

	apiErr = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
	if ShowErrorDetails {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	} else {
		apiErr = FromDomainError(err)
	}

	c.JSON(apiErr.Status, apiErr)
}
