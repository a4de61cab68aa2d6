// Package apperr classifies failures crossing layer boundaries so the
// command layer can turn them into short terminal messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind buckets an error for presentation.
type Kind int

const (
	Internal Kind = iota
	InvalidConfig
	NotFound
	MetadataFailure
	IOFailure
	LockHeld
)

func (k Kind) String() string {
	switch k {
	case InvalidConfig:
		return "invalid config"
	case NotFound:
		return "not found"
	case MetadataFailure:
		return "metadata failure"
	case IOFailure:
		return "io failure"
	case LockHeld:
		return "lock held"
	default:
		return "internal"
	}
}

// Error ties a classified failure to the operation that hit it and,
// where one applies, the path involved.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err. A nil err stays nil so call sites can wrap the
// return value unconditionally.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf reports the classification found anywhere in err's chain.
// Unclassified errors count as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// UserMessage renders err as a single friendly line, hiding the
// wrapped chain unless nothing better is known.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", e.Err)
	case NotFound:
		return "Path not found: " + e.Path
	case MetadataFailure:
		return "Could not read tags: " + subject(e)
	case IOFailure:
		return "I/O error: " + subject(e)
	case LockHeld:
		return "Another run is already active (lock at " + e.Path + ")"
	default:
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	}
}

func subject(e *Error) string {
	if e.Path != "" {
		return e.Path
	}
	return fmt.Sprint(e.Err)
}
