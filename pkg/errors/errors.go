package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal server error")
	ErrValidation       = errors.New("validation error")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrDependency       = errors.New("dependency failure")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// InvalidInput is a 400 whose message carries the underlying cause.
func InvalidInput(cause error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrBadRequest, cause),
		Code:       "INVALID_INPUT",
		Message:    cause.Error(),
		StatusCode: http.StatusBadRequest,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// ModelUnavailable is returned for every prediction when the classifier did not load at startup.
func ModelUnavailable() *AppError {
	return &AppError{
		Err:        ErrModelUnavailable,
		Code:       "MODEL_UNAVAILABLE",
		Message:    "Model is not loaded.",
		StatusCode: http.StatusInternalServerError,
	}
}

// Dependency reports a failing external collaborator (OCR engine, rasterizer, scoring service).
func Dependency(message string, cause error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrDependency, cause),
		Code:       "DEPENDENCY_ERROR",
		Message:    fmt.Sprintf("%s: %v", message, cause),
		StatusCode: http.StatusInternalServerError,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
