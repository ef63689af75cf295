// Package errors provides structured error types for ugantt.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and HTTP surface
//   - Machine-readable error codes for programmatic handling
//   - Row- and field-level context for document diagnostics
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Resolution errors carry the row (and where useful, the field) that
// produced them, so a failing reference can be reported as
// "row 'A10 specification', field 'at'" rather than as a bare message.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnresolvedReference, "no row matches %q", pat).WithRow(row)
//	if errors.Is(err, errors.ErrCodeUnresolvedReference) {
//	    // Handle resolution failure
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Reference resolution errors
	ErrCodeMalformedReference  Code = "MALFORMED_REFERENCE"
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeCyclicReference     Code = "CYCLIC_REFERENCE"

	// Document shape errors
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidRowShape Code = "INVALID_ROW_SHAPE"
	ErrCodeMissingKey      Code = "MISSING_KEY"

	// Input/output errors
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidTheme  Code = "INVALID_THEME"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, optional document context, and
// an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Row     string // Name of the owning row, if any
	Field   string // Offending field ("at", "dep", ...), if any
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Row != "" {
		if e.Field != "" {
			msg = fmt.Sprintf("row %q, field %q: %s", e.Row, e.Field, msg)
		} else {
			msg = fmt.Sprintf("row %q: %s", e.Row, msg)
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithRow returns a copy of e annotated with the owning row name.
func (e *Error) WithRow(row string) *Error {
	c := *e
	c.Row = row
	return &c
}

// WithField returns a copy of e annotated with the offending field name.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (with row/field context) without the
// code prefix. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Row != "" {
			msg = fmt.Sprintf("row %q: %s", e.Row, msg)
		}
		return msg
	}
	return err.Error()
}
