// Package apperr classifies failures of the scheduling pipeline into a small
// set of kinds so callers can tell bad input apart from a broken data source.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind int

const (
	// Internal marks anything not anticipated. It indicates a defect.
	Internal Kind = iota
	// InvalidArgument marks a precondition violated before any work begins.
	InvalidArgument
	// DataUnavailable marks a data provider that failed to supply the fleet.
	DataUnavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case DataUnavailable:
		return "data_unavailable"
	default:
		return "internal"
	}
}

// Error is a classified error. Err is optional and kept for unwrapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, apperr.ErrInvalidArgument).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
	ErrDataUnavailable = &Error{Kind: DataUnavailable}
	ErrInternal        = &Error{Kind: Internal}
)

// Invalid returns an InvalidArgument error with a formatted message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps err as a DataUnavailable failure.
func Unavailable(err error, message string) error {
	return &Error{Kind: DataUnavailable, Message: message, Err: err}
}

// Internalf returns an Internal error with a formatted message.
func Internalf(format string, args ...any) error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. Errors that are not an *Error are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
