// Package errors provides structured error types for quillribbon.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - Per-item error reports for partially converted documents
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (archive, metadata, options)
//   - OUT_OF_BOUNDS, MALFORMED_OFFSET, MISSING_FIELD, CORRUPT_DATA: decode and build failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidArchive, "missing member %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidArchive) {
//	    // Handle archive error
//	}
//
//	// Typed errors carry their own code
//	var oob *errors.OutOfBoundsError
//	if stderrors.As(err, &oob) {
//	    fmt.Println(oob.Offset, oob.Length)
//	}
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
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidArchive  Code = "INVALID_ARCHIVE"
	ErrCodeInvalidMetadata Code = "INVALID_METADATA"
	ErrCodeInvalidOption   Code = "INVALID_OPTION"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Decode and build errors
	ErrCodeOutOfBounds     Code = "OUT_OF_BOUNDS"
	ErrCodeMalformedOffset Code = "MALFORMED_OFFSET"
	ErrCodeMissingField    Code = "MISSING_FIELD"
	ErrCodeCorruptData     Code = "CORRUPT_DATA"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// coder is implemented by typed errors that carry their own code.
type coder interface {
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
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
// The outermost coded error in the chain decides; typed errors such as
// [OutOfBoundsError] are matched through their Code method.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error and typed errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var c coder
	if errors.As(err, &c) {
		return strings.TrimPrefix(c.(error).Error(), string(c.Code())+": ")
	}
	return err.Error()
}

// OutOfBoundsError reports a read or skip that would run past the end of the
// binary member.
type OutOfBoundsError struct {
	Offset int // Cursor position where the access starts
	Size   int // Number of bytes the access needs
	Length int // Length of the binary member
}

// Error implements the error interface.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: read of %d bytes at offset %d exceeds binary length %d",
		ErrCodeOutOfBounds, e.Size, e.Offset, e.Length)
}

// Code returns the error code for this error type.
func (e *OutOfBoundsError) Code() Code { return ErrCodeOutOfBounds }

// MalformedOffsetError reports a DataFileOffset that is not a hexadecimal
// non-negative integer.
type MalformedOffsetError struct {
	Value string
	Cause error
}

// Error implements the error interface.
func (e *MalformedOffsetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: invalid data file offset %q: %v", ErrCodeMalformedOffset, e.Value, e.Cause)
	}
	return fmt.Sprintf("%s: invalid data file offset %q", ErrCodeMalformedOffset, e.Value)
}

// Code returns the error code for this error type.
func (e *MalformedOffsetError) Code() Code { return ErrCodeMalformedOffset }

// Unwrap returns the parse error, if any.
func (e *MalformedOffsetError) Unwrap() error { return e.Cause }

// MissingFieldError reports a stroke that lacks data the geometry builder needs.
type MissingFieldError struct {
	Stroke int    // Index of the stroke within its batch
	Field  string // Name of the missing field
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: stroke %d: missing %s", ErrCodeMissingField, e.Stroke, e.Field)
}

// Code returns the error code for this error type.
func (e *MissingFieldError) Code() Code { return ErrCodeMissingField }

// NonFiniteError reports a stroke whose decoded data holds a NaN or an
// infinity. Vertex is -1 when the value is the stroke's representative width
// or color.
type NonFiniteError struct {
	Stroke int    // Index of the stroke within its batch
	Vertex int    // Index of the offending vertex, or -1
	Field  string // position, color, width or orientation
}

// Error implements the error interface.
func (e *NonFiniteError) Error() string {
	if e.Vertex >= 0 {
		return fmt.Sprintf("%s: stroke %d: vertex %d: non-finite %s", ErrCodeCorruptData, e.Stroke, e.Vertex, e.Field)
	}
	return fmt.Sprintf("%s: stroke %d: non-finite %s", ErrCodeCorruptData, e.Stroke, e.Field)
}

// Code returns the error code for this error type.
func (e *NonFiniteError) Code() Code { return ErrCodeCorruptData }

// StrokeIndex returns the stroke index carried by a per-stroke error, or -1
// when err does not concern a single stroke.
func StrokeIndex(err error) int {
	var mf *MissingFieldError
	if errors.As(err, &mf) {
		return mf.Stroke
	}
	var nf *NonFiniteError
	if errors.As(err, &nf) {
		return nf.Stroke
	}
	return -1
}

// ItemError locates an error inside a document. Stroke is -1 when the error
// concerns a whole drawing.
type ItemError struct {
	Node    string // Scene path of the node owning the drawing
	Drawing int    // Index of the drawing within the node
	Stroke  int    // Index of the stroke within the drawing, or -1
	Err     error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	if e.Stroke >= 0 {
		return fmt.Sprintf("%s: drawing %d: stroke %d: %v", e.Node, e.Drawing, e.Stroke, e.Err)
	}
	return fmt.Sprintf("%s: drawing %d: %v", e.Node, e.Drawing, e.Err)
}

// Unwrap returns the underlying error.
func (e *ItemError) Unwrap() error { return e.Err }

// Flatten expands errors created with errors.Join into their parts.
// A nil error yields nil.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}
