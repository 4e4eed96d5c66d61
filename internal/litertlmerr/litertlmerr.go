// Package litertlmerr defines the error taxonomy shared across the
// container and decoding packages. It follows the same plain
// fmt.Errorf("...: %w", err) wrapping used elsewhere in this repo, adding
// just enough structure (a Kind) for callers to branch on failure class
// without parsing strings.
package litertlmerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by failure class.
type Kind int

const (
	Unknown Kind = iota
	InvalidArgument
	NotFound
	FailedPrecondition
	InvalidFormat
	UnsupportedVersion
	DataLoss
	DeadlineExceeded
	Unimplemented
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case FailedPrecondition:
		return "failed precondition"
	case InvalidFormat:
		return "invalid format"
	case UnsupportedVersion:
		return "unsupported version"
	case DataLoss:
		return "data loss"
	case DeadlineExceeded:
		return "deadline exceeded"
	case Unimplemented:
		return "unimplemented"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind whose underlying error is the
// message formatted from format and args.
func New(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap annotates err with a Kind and an operation name.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Code classifies err's Kind, returning Unknown if err was not produced by
// this package (or wraps nothing that was).
func Code(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err's Kind matches k.
func Is(err error, k Kind) bool {
	return Code(err) == k
}
