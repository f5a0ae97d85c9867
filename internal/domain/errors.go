package domain

import (
	"errors"
	"fmt"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrURLNotFound is returned when a short code doesn't exist
	ErrURLNotFound = errors.New("URL not found")

	// ErrInvalidURL is returned when the provided URL is invalid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrShortCodeTaken is returned when the store rejects a write due to a
	// duplicate short code (write-time collision)
	ErrShortCodeTaken = errors.New("short code already exists")

	// ErrShortCodeInvalid is returned when a short code has invalid characters
	ErrShortCodeInvalid = errors.New("short code contains invalid characters")

	// ErrCacheUnavailable is returned when cache operations fail
	ErrCacheUnavailable = errors.New("cache temporarily unavailable")

	// ErrStoreUnavailable is returned for durable store connectivity issues
	ErrStoreUnavailable = errors.New("store connection error")
)

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Err:        ErrURLNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Internal:   false,
	}
}

// NewValidationError creates a 400 validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidURL,
		Message:    message,
		StatusCode: 400,
		Internal:   false,
	}
}

// NewConflictError creates a 409 error for write-time short code collisions
func NewConflictError(shortCode string) *AppError {
	return &AppError{
		Err:        ErrShortCodeTaken,
		Message:    fmt.Sprintf("short code %q is already in use", shortCode),
		StatusCode: 409,
		Internal:   false,
	}
}

// NewInternalError creates a 500 internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "Internal server error occurred",
		StatusCode: 500,
		Internal:   true, // Log this error
	}
}
