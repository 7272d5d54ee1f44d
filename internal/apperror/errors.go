// Package apperror provides domain-specific error types for Vendaria.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to `{error, message}` JSON responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error kind, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Kind is a machine-readable error classifier (e.g., "validation_error").
	// Serialized as the `error` field of the response body.
	Kind string `json:"error"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the error taxonomy ---

// NewValidation creates a 400 Bad Request error for missing or malformed fields.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    "validation_error",
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error. Used for bad credentials
// and for missing, invalid, or expired tokens. Messages must never reveal
// whether an account exists.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Kind:    "unauthorized",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error (duplicate email).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    "conflict",
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    "not_found",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging; the client sees its message but never a stack trace.
func NewInternal(err error) *AppError {
	msg := "an unexpected error occurred"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:     http.StatusInternalServerError,
		Kind:     "internal_error",
		Message:  msg,
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field. For any other error type,
// returns a generic message to prevent leaking internal details like table
// names or query structure.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
