// Package errors provides structured error types for the Coffer build
// pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Reference-chain reporting for graph authoring errors
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - GRAPH_*: object-graph authoring failures detected before writing
//   - INVALID_*: input validation failures
//   - NOT_FOUND_*: resource not found
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeGraphInconsistency, "transient object %s is force-loaded", ref)
//	if errors.Is(err, errors.ErrCodeGraphInconsistency) {
//	    // Abort the build.
//	}
//
//	// Attach the shortest reference chain from a root for diagnostics.
//	err = err.WithChain("game/props:Root", "game/props:Crate", "engine/dev:Gizmo")
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph authoring errors. All of these abort the build before any
	// bytes are written.
	ErrCodeGraphInconsistency Code = "GRAPH_INCONSISTENCY"
	ErrCodeIllegalReference   Code = "ILLEGAL_REFERENCE"

	// AmbiguousType is recoverable: the offending object is treated as
	// having no structural dependency and a diagnostic is logged.
	ErrCodeAmbiguousType Code = "AMBIGUOUS_TYPE"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidManifest  Code = "INVALID_MANIFEST"
	ErrCodeInvalidContainer Code = "INVALID_CONTAINER"
	ErrCodeInvalidOptions   Code = "INVALID_OPTIONS"
	ErrCodeInvalidName      Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeObjectNotFound Code = "OBJECT_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, an optional cause, and an
// optional reference chain leading from a root to the offending object.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	Cause   error    // Underlying error (optional)
	Chain   []string // Reference chain from a root to the culprit (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Chain) > 0 {
		b.WriteString(" (via ")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithChain attaches a reference chain and returns the error.
// The chain is reported root-first.
func (e *Error) WithChain(chain ...string) *Error {
	e.Chain = chain
	return e
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

// GetChain extracts the reference chain from an error, if available.
func GetChain(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Chain
	}
	return nil
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
