// Package swarmerr defines the error taxonomy shared by every coordination
// component. Components return a *SwarmError carrying one of the fixed
// Kinds below rather than ad-hoc sentinel errors, so that callers at the
// CLI boundary (internal/errors) and the shell exporter can map failures to
// the same exit codes and JSON error bodies regardless of which component
// raised them.
package swarmerr

import "fmt"

// Kind is one of the fixed error categories from the coordination error
// taxonomy. It is not an error type itself; it labels a SwarmError.
type Kind string

const (
	NotFound          Kind = "NotFound"
	AlreadyExists     Kind = "AlreadyExists"
	InvalidTransition Kind = "InvalidTransition"
	LockTimeout       Kind = "LockTimeout"
	ClockRegression   Kind = "ClockRegression"
	OracleUnavailable Kind = "OracleUnavailable"
	Cancelled         Kind = "Cancelled"
	StateCorruption   Kind = "StateCorruption"
	TelemetryOverflow Kind = "TelemetryOverflow"
)

// SwarmError is the error type returned by every coordination operation
// that fails for one of the reasons in the taxonomy.
type SwarmError struct {
	Kind          Kind
	Message       string
	CorrelationID string
	Cause         error
}

func (e *SwarmError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SwarmError) Unwrap() error {
	return e.Cause
}

// New creates a SwarmError of the given kind.
func New(kind Kind, message string) *SwarmError {
	return &SwarmError{Kind: kind, Message: message}
}

// Newf creates a SwarmError of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *SwarmError {
	return &SwarmError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a SwarmError of the given kind wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *SwarmError {
	return &SwarmError{Kind: kind, Message: message, Cause: cause}
}

// WithCorrelation attaches a correlation id for §7's JSON error body and
// returns the same error for chaining.
func (e *SwarmError) WithCorrelation(id string) *SwarmError {
	e.CorrelationID = id
	return e
}

// Is reports whether err is a *SwarmError of the given kind. It supports
// errors.Is-style matching via a sentinel comparison on Kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*SwarmError)
	if !ok {
		return false
	}
	return se.Kind == kind
}

// KindOf extracts the Kind from err, returning "" if err is not a
// *SwarmError.
func KindOf(err error) Kind {
	se, ok := err.(*SwarmError)
	if !ok {
		return ""
	}
	return se.Kind
}
