// Package errors provides CLI-facing error formatting for the coordination
// engine's subcommand surface (spec §6.1, §7). Components return
// *swarmerr.SwarmError values from the error taxonomy; the CLI boundary
// wraps those (or any other error) in a CLIError to render a human-readable
// message plus an optional actionable suggestion.
package errors

import (
	"fmt"
	"strings"
)

// Category groups CLIErrors by the kind of lead-in they render with.
type Category int

const (
	CategoryRuntime Category = iota
	CategoryUsage
	CategoryConfig
	CategoryConnection
	CategoryNotFound
)

// CLIError is an error enriched with a category and an optional actionable
// suggestion, rendered by Format at the subcommand boundary.
type CLIError struct {
	Category   Category
	Message    string
	Suggestion string
	Cause      error
}

// New creates a CLIError with no cause.
func New(category Category, message string) *CLIError {
	return &CLIError{Category: category, Message: message}
}

// Wrap creates a CLIError wrapping cause.
func Wrap(category Category, message string, cause error) *CLIError {
	return &CLIError{Category: category, Message: message, Cause: cause}
}

// WithSuggestion attaches an actionable suggestion and returns the same
// error for chaining.
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

func categoryPrefix(c Category) string {
	switch c {
	case CategoryUsage:
		return "Usage error:"
	case CategoryConfig:
		return "Configuration error:"
	case CategoryConnection:
		return "Connection error:"
	case CategoryNotFound:
		return "Not found:"
	default:
		return "Error:"
	}
}

// Format renders err for display on the subcommand surface's human output
// path (the --json path uses the structured {error:{kind,message,
// correlation_id}} body instead; see swarmerr.SwarmError and
// cliutil.Printer.Error).
// Format(nil) returns "".
func Format(err error) string {
	if err == nil {
		return ""
	}

	cliErr, ok := err.(*CLIError)
	if !ok {
		return fmt.Sprintf("Error: %s", err.Error())
	}

	var b strings.Builder
	b.WriteString(categoryPrefix(cliErr.Category))
	b.WriteString(" ")
	b.WriteString(cliErr.Message)

	if cliErr.Cause != nil {
		b.WriteString(": ")
		b.WriteString(cliErr.Cause.Error())
	}

	if cliErr.Suggestion != "" {
		b.WriteString("\nTry: ")
		b.WriteString(cliErr.Suggestion)
	}

	return b.String()
}

// MissingArgument reports a required subcommand argument that was not
// supplied.
func MissingArgument(name, argType string) *CLIError {
	return New(CategoryUsage, fmt.Sprintf("missing required argument %q (%s)", name, argType)).
		WithSuggestion(fmt.Sprintf("pass --%s", name))
}

// InvalidArgument reports a subcommand argument that failed validation.
func InvalidArgument(name, value, expectedType string) *CLIError {
	return New(CategoryUsage, fmt.Sprintf("invalid value %q for argument %q, expected %s", value, name, expectedType))
}

// UnknownCommand reports an unrecognized subcommand.
func UnknownCommand(name string) *CLIError {
	return New(CategoryUsage, fmt.Sprintf("unknown command %q", name)).
		WithSuggestion("swarmsh --help")
}

// AgentNotFound reports that the given agent id is not registered.
func AgentNotFound(agentID string) *CLIError {
	return New(CategoryNotFound, fmt.Sprintf("agent %q is not registered", agentID)).
		WithSuggestion("swarmsh status --detailed")
}

// WorkNotFound reports that the given work id does not exist in the queue
// or claim table.
func WorkNotFound(workID string) *CLIError {
	return New(CategoryNotFound, fmt.Sprintf("work item %q was not found", workID)).
		WithSuggestion("swarmsh status --detailed")
}

// UnknownPattern reports an unrecognized coordination pattern name.
func UnknownPattern(name string) *CLIError {
	return New(CategoryUsage, fmt.Sprintf("unknown coordination pattern %q", name)).
		WithSuggestion("use one of: atomic, realtime, scrum-at-scale, roberts-rules")
}

// OracleUnavailable reports that the AI oracle could not be reached within
// its deadline. The engine itself treats an unavailable oracle as
// non-fatal and falls back to pattern-default behavior.
func OracleUnavailable(cause error) *CLIError {
	return Wrap(CategoryConnection, "AI oracle unavailable, proceeding with defaults", cause)
}

// LockTimeoutError reports that a lock on resource could not be acquired
// within the configured deadline.
func LockTimeoutError(resource string) *CLIError {
	return New(CategoryRuntime, fmt.Sprintf("timed out acquiring lock on %q", resource)).
		WithSuggestion("retry with backoff")
}
