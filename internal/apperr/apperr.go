// Package apperr defines the error kinds shared by repositories, services and handlers.
//
// Callers wrap one of the sentinels with context, e.g.
//
//	fmt.Errorf("product with ID %s not found: %w", id, apperr.ErrNotFound)
//
// and the HTTP layer maps the kind to a status code with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Validation returns an ErrValidation carrying a formatted message.
func Validation(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound carrying a formatted message.
func NotFound(format string, args ...interface{}) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Forbidden returns an ErrForbidden carrying a formatted message.
func Forbidden(format string, args ...interface{}) error {
	return &kindError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

// Unauthorized returns an ErrUnauthorized carrying a formatted message.
func Unauthorized(format string, args ...interface{}) error {
	return &kindError{kind: ErrUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict carrying a formatted message.
func Conflict(format string, args ...interface{}) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Status maps an error to the HTTP status code of its kind.
// Errors of no known kind are store or programming failures and map to 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
