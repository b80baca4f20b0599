// Package errors defines the typed errors stockboard returns to HTTP clients.
// Every AppError wraps one of the sentinel errors below, so callers can test
// the category with Is regardless of the message.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
	ErrUnavailable  = errors.New("upstream unavailable")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// kind ties a sentinel to the code and status it is reported with
type kind struct {
	sentinel error
	code     string
	status   int
}

var (
	kindNotFound     = kind{ErrNotFound, "NOT_FOUND", http.StatusNotFound}
	kindUnauthorized = kind{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized}
	kindForbidden    = kind{ErrForbidden, "FORBIDDEN", http.StatusForbidden}
	kindBadRequest   = kind{ErrBadRequest, "BAD_REQUEST", http.StatusBadRequest}
	kindConflict     = kind{ErrConflict, "CONFLICT", http.StatusConflict}
	kindInternal     = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError}
	kindValidation   = kind{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest}
	kindUnavailable  = kind{ErrUnavailable, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway}
	kindTokenExpired = kind{ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized}
	kindTokenInvalid = kind{ErrTokenInvalid, "TOKEN_INVALID", http.StatusUnauthorized}
)

func (k kind) new(message string) *AppError {
	return &AppError{Err: k.sentinel, Code: k.code, Message: message, StatusCode: k.status}
}

// AppError is an error with a stable code, an HTTP status and optional per-field details
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches details and returns e
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// New creates an AppError with no sentinel
func New(code string, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap creates an AppError around err
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{Err: err, Code: code, Message: message, StatusCode: statusCode}
}

func NotFound(resource string) *AppError {
	return kindNotFound.new(resource + " not found")
}

func Unauthorized(message string) *AppError {
	return kindUnauthorized.new(message)
}

func Forbidden(message string) *AppError {
	return kindForbidden.new(message)
}

func BadRequest(message string) *AppError {
	return kindBadRequest.new(message)
}

func Conflict(message string) *AppError {
	return kindConflict.new(message)
}

func Internal(message string) *AppError {
	return kindInternal.new(message)
}

// Unavailable reports that the remote stock API could not serve the request.
// The cause stays in the error chain but never reaches the response body.
func Unavailable(message string, cause error) *AppError {
	e := kindUnavailable.new(message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %v", ErrUnavailable, cause)
	}
	return e
}

// Validation reports field errors keyed by JSON field name
func Validation(details map[string]string) *AppError {
	return kindValidation.new("validation failed").WithDetails(details)
}

func TokenExpired() *AppError {
	return kindTokenExpired.new("token has expired")
}

func TokenInvalid() *AppError {
	return kindTokenInvalid.new("invalid token")
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
