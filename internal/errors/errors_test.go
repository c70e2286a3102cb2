package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCLIError_Error(t *testing.T) {
	err := New(CategoryRuntime, "test error")
	if err.Error() != "test error" {
		t.Errorf("expected 'test error', got '%s'", err.Error())
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(CategoryRuntime, "wrapper", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestFormat_CLIError(t *testing.T) {
	tests := []struct {
		name     string
		err      *CLIError
		contains []string
	}{
		{
			name:     "basic error",
			err:      New(CategoryRuntime, "something failed"),
			contains: []string{"Error:", "something failed"},
		},
		{
			name:     "usage error",
			err:      New(CategoryUsage, "invalid argument"),
			contains: []string{"Usage error:", "invalid argument"},
		},
		{
			name:     "config error",
			err:      New(CategoryConfig, "missing config"),
			contains: []string{"Configuration error:", "missing config"},
		},
		{
			name:     "connection error",
			err:      New(CategoryConnection, "oracle unreachable"),
			contains: []string{"Connection error:", "oracle unreachable"},
		},
		{
			name:     "not found error",
			err:      New(CategoryNotFound, "agent missing"),
			contains: []string{"Not found:", "agent missing"},
		},
		{
			name:     "error with cause",
			err:      Wrap(CategoryRuntime, "operation failed", errors.New("permission denied")),
			contains: []string{"operation failed", "permission denied"},
		},
		{
			name:     "error with suggestion",
			err:      New(CategoryConnection, "oracle offline").WithSuggestion("retry with backoff"),
			contains: []string{"oracle offline", "Try:", "retry with backoff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatted := Format(tt.err)
			for _, s := range tt.contains {
				if !strings.Contains(formatted, s) {
					t.Errorf("expected formatted error to contain '%s', got: %s", s, formatted)
				}
			}
		})
	}
}

func TestFormat_RegularError(t *testing.T) {
	err := errors.New("regular error")
	formatted := Format(err)

	if !strings.Contains(formatted, "Error:") {
		t.Errorf("expected 'Error:' prefix, got: %s", formatted)
	}
	if !strings.Contains(formatted, "regular error") {
		t.Errorf("expected error message, got: %s", formatted)
	}
}

func TestFormat_Nil(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should return empty string")
	}
}

func TestMissingArgument(t *testing.T) {
	err := MissingArgument("work-id", "string")
	formatted := Format(err)

	if !strings.Contains(formatted, "work-id") {
		t.Errorf("expected argument name, got: %s", formatted)
	}
	if !strings.Contains(formatted, "string") {
		t.Errorf("expected type hint, got: %s", formatted)
	}
}

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("progress", "abc", "integer")
	formatted := Format(err)

	if !strings.Contains(formatted, "progress") {
		t.Errorf("expected argument name, got: %s", formatted)
	}
	if !strings.Contains(formatted, "abc") {
		t.Errorf("expected value, got: %s", formatted)
	}
	if !strings.Contains(formatted, "integer") {
		t.Errorf("expected expected type, got: %s", formatted)
	}
}

func TestUnknownCommand(t *testing.T) {
	err := UnknownCommand("foobar")
	formatted := Format(err)

	if !strings.Contains(formatted, "foobar") {
		t.Errorf("expected command name, got: %s", formatted)
	}
	if !strings.Contains(formatted, "--help") {
		t.Errorf("expected help suggestion, got: %s", formatted)
	}
}

func TestAgentNotFound(t *testing.T) {
	err := AgentNotFound("a1")
	formatted := Format(err)

	if !strings.Contains(formatted, "a1") {
		t.Errorf("expected agent id, got: %s", formatted)
	}
	if !strings.Contains(formatted, "status") {
		t.Errorf("expected status suggestion, got: %s", formatted)
	}
}

func TestWorkNotFound(t *testing.T) {
	err := WorkNotFound("w1")
	formatted := Format(err)

	if !strings.Contains(formatted, "w1") {
		t.Errorf("expected work id, got: %s", formatted)
	}
}

func TestUnknownPattern(t *testing.T) {
	err := UnknownPattern("bogus")
	formatted := Format(err)

	if !strings.Contains(formatted, "bogus") {
		t.Errorf("expected pattern name, got: %s", formatted)
	}
	if !strings.Contains(formatted, "atomic") {
		t.Errorf("expected pattern list, got: %s", formatted)
	}
}

func TestOracleUnavailable(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := OracleUnavailable(cause)
	formatted := Format(err)

	if !strings.Contains(formatted, "oracle") {
		t.Errorf("expected oracle mention, got: %s", formatted)
	}
	if !strings.Contains(formatted, "deadline exceeded") {
		t.Errorf("expected cause, got: %s", formatted)
	}
}

func TestLockTimeoutError(t *testing.T) {
	err := LockTimeoutError("work/w1")
	formatted := Format(err)

	if !strings.Contains(formatted, "work/w1") {
		t.Errorf("expected resource name, got: %s", formatted)
	}
}

func TestWithSuggestion_Chaining(t *testing.T) {
	err := New(CategoryRuntime, "failed").WithSuggestion("try again")

	if err.Suggestion != "try again" {
		t.Errorf("expected suggestion to be set, got: %s", err.Suggestion)
	}
}
