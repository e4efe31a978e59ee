// Package sentinel defines the error taxonomy shared by the conversion engine.
//
// Callers match on the sentinel values with errors.Is; the concrete *Error
// additionally names the offending argument:
//   - ErrInvalidArgument: unresolvable calendar id, locale or zone, or a civil
//     value that does not exist in its calendar
//   - ErrInvalidFormat: text that matches none of the accepted grammars
//   - ErrIndexOutOfRange: reserved for collection helpers, never returned here
package sentinel

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Error is a typed failure that wraps one of the sentinel values.
type Error struct {
	Kind error  // one of the sentinel values
	Name string // argument name, e.g. "zone" or "calendar"
	Msg  string
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Name, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// InvalidArgument returns an *Error of kind ErrInvalidArgument.
func InvalidArgument(name, format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// InvalidFormat returns an *Error of kind ErrInvalidFormat.
func InvalidFormat(name, format string, args ...any) error {
	return &Error{Kind: ErrInvalidFormat, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// Code returns a stable snake_case code for err, suitable for wire formats.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	default:
		return "internal_error"
	}
}
