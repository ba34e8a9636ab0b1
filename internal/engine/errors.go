package engine

import (
	"errors"
	"fmt"
)

// InvocationError represents a failed engine invocation.
//
// Invocation failures are recoverable: the harness logs them, counts the
// expectation as skipped, and moves on. They never carry a node count.
type InvocationError struct {
	// Code identifies the failure category.
	Code InvocationErrorCode

	// Message is a human-readable description.
	Message string

	// Depth and Position identify the expectation being evaluated.
	Depth    int
	Position string

	// Stderr holds the captured diagnostic output, if any.
	Stderr string
}

// InvocationErrorCode categorizes invocation failures.
type InvocationErrorCode string

const (
	// ErrCodeStartFailed indicates the engine process could not be started.
	ErrCodeStartFailed InvocationErrorCode = "START_FAILED"

	// ErrCodeExitStatus indicates the engine exited with a non-zero status.
	ErrCodeExitStatus InvocationErrorCode = "EXIT_STATUS"

	// ErrCodeBadOutput indicates stdout was not a single decimal integer.
	ErrCodeBadOutput InvocationErrorCode = "BAD_OUTPUT"

	// ErrCodeDeadlineExceeded indicates the invocation timeout expired.
	ErrCodeDeadlineExceeded InvocationErrorCode = "DEADLINE_EXCEEDED"
)

// Error implements the error interface.
func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Stderr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvocationError reports whether err is (or wraps) an InvocationError.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}

// IsDeadlineError reports whether err is an invocation timeout.
// Uses errors.As to handle wrapped errors.
func IsDeadlineError(err error) bool {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeDeadlineExceeded
	}
	return false
}

// NewStartError creates an InvocationError for a process that failed to start.
func NewStartError(depth int, position string, cause error) *InvocationError {
	return &InvocationError{
		Code:     ErrCodeStartFailed,
		Message:  fmt.Sprintf("engine failed to start: %v", cause),
		Depth:    depth,
		Position: position,
	}
}

// NewExitError creates an InvocationError for a non-zero exit status.
func NewExitError(depth int, position string, status int, stderr string) *InvocationError {
	return &InvocationError{
		Code:     ErrCodeExitStatus,
		Message:  fmt.Sprintf("engine exited with status %d", status),
		Depth:    depth,
		Position: position,
		Stderr:   stderr,
	}
}

// NewBadOutputError creates an InvocationError for unparseable stdout.
func NewBadOutputError(depth int, position, output string) *InvocationError {
	return &InvocationError{
		Code:     ErrCodeBadOutput,
		Message:  fmt.Sprintf("engine output %q is not a single integer", output),
		Depth:    depth,
		Position: position,
	}
}

// NewDeadlineError creates an InvocationError for an expired timeout.
func NewDeadlineError(depth int, position string, stderr string) *InvocationError {
	return &InvocationError{
		Code:     ErrCodeDeadlineExceeded,
		Message:  "engine invocation timed out",
		Depth:    depth,
		Position: position,
		Stderr:   stderr,
	}
}
