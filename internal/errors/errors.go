package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. ErrConfig and ErrRender abort a run; ErrSSH and ErrParse
// only drop the node they happened on.
const (
	ErrConfig = "CONFIG"
	ErrSSH    = "SSH"    // host unreachable or auth rejected
	ErrParse  = "PARSE"  // command output didn't have the expected shape
	ErrRender = "RENDER" // empty graph, layout or drawing failure
	ErrExec   = "EXEC"
)

// Error is what meshmap reports to the operator: a code for classification,
// a one-line message, an optional fix and the underlying cause. It prints as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewParse creates a parse error for output of the given command.
// The snippet is the offending line and is included in the cause.
func NewParse(command, snippet string) *Error {
	return &Error{
		Code:       ErrParse,
		Message:    fmt.Sprintf("Unexpected output from '%s'", command),
		Suggestion: "The firmware may have changed its output format. Run the command by hand to compare.",
		Cause:      fmt.Errorf("unparsable line: %q", snippet),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var mmErr *Error
	if errors.As(err, &mmErr) {
		return mmErr.Code == code
	}
	return false
}

// SuggestionOf returns the fix attached to the first structured error in
// err's chain, or "" when there is none.
func SuggestionOf(err error) string {
	var mmErr *Error
	if errors.As(err, &mmErr) {
		return mmErr.Suggestion
	}
	return ""
}

// Summary returns the one-line message of a structured error, or err.Error()
// for anything else. Useful for log lines where the full block is too noisy.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var mmErr *Error
	if errors.As(err, &mmErr) {
		return mmErr.Message
	}
	return strings.TrimSpace(err.Error())
}
