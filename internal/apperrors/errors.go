package apperrors

import "errors"

// NoIndex marks an error that is not tied to a batch item.
const NoIndex = -1

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Field    string            // Offending input field, if any
	Index    int               // Batch item index, NoIndex otherwise
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Index: NoIndex}
}

// Field creates a validation error attached to an input field.
func Field(code Code, field, message string) *Error {
	return &Error{Code: code, Field: field, Message: message, Index: NoIndex}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Index: NoIndex}
}

// WithMetadata returns a copy of e carrying the given metadata.
func (e *Error) WithMetadata(metadata map[string]string) *Error {
	cp := *e
	cp.Metadata = metadata
	return &cp
}

// AtIndex returns a copy of e tagged with a batch item index.
func (e *Error) AtIndex(i int) *Error {
	cp := *e
	cp.Index = i
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}
