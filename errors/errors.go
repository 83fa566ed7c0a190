// Package errors defines the application error type returned by services and mapped to
// HTTP responses by controllers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeFileTooLarge       ErrorCode = "FILE_TOO_LARGE"
	ErrCodeStorageFailed      ErrorCode = "STORAGE_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError is an error with a code, a client-safe message and the HTTP status it maps to.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Status    int       `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, status int, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError is a 400 carrying message verbatim.
func NewValidationError(message string) *StandardError {
	return newError(ErrCodeValidation, http.StatusBadRequest, message)
}

// NewConflictError reports a taken username or email. The API has always answered these with 400.
func NewConflictError(message string) *StandardError {
	return newError(ErrCodeConflict, http.StatusBadRequest, message)
}

func NewUnauthorizedError(message string) *StandardError {
	return newError(ErrCodeUnauthorized, http.StatusUnauthorized, message)
}

func NewInvalidCredentialsError() *StandardError {
	return newError(ErrCodeInvalidCredentials, http.StatusUnauthorized, "Invalid credentials")
}

func NewForbiddenError(message string) *StandardError {
	return newError(ErrCodeForbidden, http.StatusForbidden, message)
}

// NewNotFoundError builds "<what> not found".
func NewNotFoundError(what string) *StandardError {
	return newError(ErrCodeNotFound, http.StatusNotFound, what+" not found")
}

func NewFileTooLargeError() *StandardError {
	return newError(ErrCodeFileTooLarge, http.StatusBadRequest, "File too large")
}

// NewStorageError wraps a backend failure; message is what the client sees.
func NewStorageError(message string, err error) *StandardError {
	e := newError(ErrCodeStorageFailed, http.StatusInternalServerError, message)
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewNotificationError(err error) *StandardError {
	e := newError(ErrCodeNotificationFailed, http.StatusInternalServerError, "Failed to send notification")
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// As returns the StandardError in err's chain, if any.
func As(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// StatusCode maps err to an HTTP status; unknown errors are 500.
func StatusCode(err error) int {
	if se, ok := As(err); ok && se.Status != 0 {
		return se.Status
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	se, ok := As(err)
	return ok && se.Code == code
}
