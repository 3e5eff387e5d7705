// Package failure defines the error taxonomy shared by the module host.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for propagation and user-visible reporting.
type Kind uint8

const (
	Unknown Kind = iota
	// Network is an HTTP call error or an unacceptable response status.
	Network
	// SurfaceTimeout is a readiness or script-completion signal that never arrived in time.
	SurfaceTimeout
	// ExtractionEmpty is a script run that produced no output lines.
	ExtractionEmpty
	// Decode is extracted text that matched none of the expected result shapes.
	Decode
	// Package is a bad manifest, duplicate module identity or corrupt archive.
	Package
	// Preference is persisted state that could not be read or written.
	Preference
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network failure"
	case SurfaceTimeout:
		return "surface timeout"
	case ExtractionEmpty:
		return "empty extraction"
	case Decode:
		return "decode failure"
	case Package:
		return "package failure"
	case Preference:
		return "preference failure"
	default:
		return "failure"
	}
}

// Error is a classified failure. Text carries the raw payload that caused a
// decode failure so it can be shown for diagnostics.
type Error struct {
	Kind Kind
	Op   string
	Text string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err as a failure of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a failure of the given kind from a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
