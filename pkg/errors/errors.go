// Package errors provides the coded errors slotfit returns at its
// boundaries: input loaders, configuration, report stores, proof rendering
// and the HTTP API.
//
// Placement problems are not errors. A note without a slot or with hard
// overset is recorded as a warning on the note and the run carries on.
//
// Codes group by prefix: INVALID_* for bad input (HTTP 400, CLI exit 2),
// *NOT_FOUND for missing resources (404), *_FAILED for the host
// document, report store or renderer (500).
//
//	err := errors.New(errors.ErrCodeInvalidSlots, "slot %q has no area", id)
//	err = errors.Wrap(errors.ErrCodeStore, err, "save report %s", runID)
//	errors.Is(err, errors.ErrCodeStore) // true
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidSlots    Code = "INVALID_SLOTS"
	ErrCodeInvalidNotes    Code = "INVALID_NOTES"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodePageNotFound Code = "PAGE_NOT_FOUND"

	ErrCodeHost   Code = "HOST_FAILED"
	ErrCodeStore  Code = "STORE_FAILED"
	ErrCodeRender Code = "RENDER_FAILED"

	ErrCodeIncomplete  Code = "INCOMPLETE_PLAN"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Invalid reports whether c marks bad caller input.
func (c Code) Invalid() bool { return strings.HasPrefix(string(c), "INVALID_") }

// Status is the HTTP status for c.
func (c Code) Status() int {
	switch {
	case c.Invalid():
		return http.StatusBadRequest
	case strings.HasSuffix(string(c), "NOT_FOUND"):
		return http.StatusNotFound
	case c == ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// Error carries a code, a message for users and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage is the message without the code prefix or cause. Errors that
// are not *Error return their full text.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus is the status the API responds with for err.
func HTTPStatus(err error) int { return GetCode(err).Status() }
