// Package orcherrors defines the orchestrator's error taxonomy: every error that
// crosses a component boundary carries a stable Kind, a human Message, and optional
// structured Details so the HTTP layer and the ProgressTracker can classify it without
// string matching.
package orcherrors

import "fmt"

// Kind is a stable, comparable error classification.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindNotFound          Kind = "NotFound"
	KindAlreadyExists     Kind = "AlreadyExists"
	KindUnavailable       Kind = "Unavailable"
	KindTimeout           Kind = "Timeout"
	KindCancelled         Kind = "Cancelled"
	KindRecursionExceeded Kind = "RecursionExceeded"
	KindSerialization     Kind = "SerializationError"
	KindInternal          Kind = "Internal"
)

// Error is the concrete error type carried through the orchestrator.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches structured details and returns the receiver for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind from err, defaulting to KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var oe *Error
	if e, ok := err.(*Error); ok {
		oe = e
	} else if u, ok := err.(interface{ Unwrap() error }); ok {
		return KindOf(u.Unwrap())
	}
	if oe == nil {
		return KindInternal
	}
	return oe.Kind
}

// Retriable reports whether an error of this kind should be retried by the caller
// (LLM calls only retry Timeout and Unavailable per the propagation policy).
func Retriable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

// Terminal reports whether the kind represents a fatal condition that must terminate
// the owning graph/job rather than be fed back to the LLM as a tool-result string.
func Terminal(err error) bool {
	switch KindOf(err) {
	case KindCancelled, KindTimeout:
		return true
	default:
		return false
	}
}
