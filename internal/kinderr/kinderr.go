// Package kinderr implements the error taxonomy from spec §7: a small set
// of named error kinds (not Go types) that every layer of the orchestrator
// classifies its failures into, so callers can decide whether to retry,
// surface a hint to the model, or fail the turn.
package kinderr

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error categories from §7.
type Kind string

const (
	Validation Kind = "validation"
	NotFound   Kind = "not_found"
	Conflict   Kind = "conflict"
	Auth       Kind = "auth"
	Upstream   Kind = "upstream"
	Deadline   Kind = "deadline"
	Internal   Kind = "internal"
)

// Error is a structured, classified error carrying a hint for the LLM
// and an optional cause for errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithHint attaches a corrective hint for the LLM to react to (§4.1 step 3).
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// As extracts a *Error from err's chain, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is (or wraps) a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Retryable reports whether the error's kind is retriable by the CALL_MODEL
// backoff loop (§4.1, §7): only Upstream failures are retried.
func Retryable(err error) bool {
	return Is(err, Upstream)
}
