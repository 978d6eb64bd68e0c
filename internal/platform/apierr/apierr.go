package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation     = "validation_error"
	CodeNotFound       = "not_found"
	CodeTransaction    = "transaction_error"
	CodeResourceToggle = "resource_toggle_error"
)

// ErrInvalidMove marks a folder move that would create a cycle.
var ErrInvalidMove = errors.New("invalid move")

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation reports malformed input. Surfaced as 400.
func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

// InvalidMove is a validation error that also matches ErrInvalidMove.
func InvalidMove(reason string) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf("%w: %s", ErrInvalidMove, reason))
}

// NotFound reports a missing entity, e.g. NotFound("folder").
func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found", what))
}

// Transaction wraps a persistence failure. Errors that already carry an API
// status pass through unchanged so a rollback caused by a validation failure
// still reports 400.
func Transaction(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	return New(http.StatusInternalServerError, CodeTransaction, err)
}

// ResourceToggle wraps a failure to acquire or release the foreign-key toggle.
func ResourceToggle(err error) error {
	if err == nil {
		return nil
	}
	return New(http.StatusInternalServerError, CodeResourceToggle, err)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the code carried by err, or CodeTransaction.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return CodeTransaction
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
