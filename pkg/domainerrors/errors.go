// Package domainerrors provides coded errors for the service layer.
//
// Stores report infrastructure facts through pkg/platform/sentinel;
// services translate those facts (and their own rule violations) into
// coded errors, and handlers map codes onto HTTP statuses. Raw driver
// or transport errors never cross the handler boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for edge mapping and logging.
type Code string

const (
	// CodeValidation marks an entity invariant violation. Field-level
	// detail travels in Error.Fields.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks malformed input at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally broken request.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a reference that does not resolve.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or state conflict.
	CodeConflict Code = "conflict"
	// CodeGateway marks an unreachable, refusing, or timed-out
	// external gateway. Single attempt, never retried here.
	CodeGateway Code = "gateway"
	// CodeTimeout marks a cancelled or expired operation context.
	CodeTimeout Code = "timeout"
	// CodeInternal marks everything that should not happen.
	CodeInternal Code = "internal"
)

// Error is the coded error type carried between services and handlers.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a CodeValidation error carrying per-field messages.
func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code on err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns the field messages of the outermost validation
// error on err, or nil.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
