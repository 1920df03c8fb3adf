// Package errs implements the pipeline's error taxonomy (spec §7):
// UserError, PolicyError, ToolError, ExecutionError (with a timeout
// flag), RemoteError, and SystemError. Each carries a stable Code for
// errors.Is-style comparison and a human Message, the same shape as the
// teacher's RoutingError/ExecutionError types.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure independent of the message text.
type Code string

const (
	CodeUserError      Code = "USER_ERROR"
	CodePolicyBlocked  Code = "POLICY_BLOCKED"
	CodeToolNotFound   Code = "TOOL_NOT_FOUND"
	CodeToolUnavailable Code = "TOOL_UNAVAILABLE"
	CodeDependencyMissing Code = "DEPENDENCY_MISSING"
	CodeExecutionFailed Code = "EXECUTION_FAILED"
	CodeTimeout        Code = "TIMEOUT"
	CodeRemoteFailed   Code = "REMOTE_FAILED"
	CodeNoPeersAvailable Code = "NO_PEERS_AVAILABLE"
	CodeCircuitOpen    Code = "CIRCUIT_OPEN"
	CodeSystemError    Code = "SYSTEM_ERROR"
)

// Sentinel errors usable with errors.Is.
var (
	ErrToolNotFound      = &ToolError{Code: CodeToolNotFound, Message: "tool not found"}
	ErrToolUnavailable   = &ToolError{Code: CodeToolUnavailable, Message: "tool unavailable"}
	ErrCircuitOpen       = &ExecutionError{Code: CodeCircuitOpen, Message: "circuit breaker open"}
	ErrNoAgentsAvailable = &RemoteError{Code: CodeNoPeersAvailable, Message: "no available peers"}
)

// UserError wraps malformed or empty input. Never rendered with a stack trace.
type UserError struct {
	Code    Code
	Message string
}

func (e *UserError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// PolicyError surfaces a safety block or a missing permission.
type PolicyError struct {
	Code    Code
	Message string
	Risks   []string
}

func (e *PolicyError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// ToolError covers missing tools, missing dependencies, and unavailable tools.
type ToolError struct {
	Code    Code
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: tool %q: %s", e.Code, e.Tool, e.Message)
}

// ExecutionError covers a tool executor failure, retried up to maxRetries
// before becoming terminal. Timeout is a flavor of ExecutionError: with
// Timeout set, Error() puts TimeoutMarker ahead of Message.
type ExecutionError struct {
	Code    Code
	StepID  string
	Message string
	Retries int
	Timeout bool
}

const TimeoutMarker = "timeout exceeded"

func (e *ExecutionError) Error() string {
	prefix := ""
	if e.Timeout {
		prefix = TimeoutMarker + ": "
	}
	if e.StepID != "" {
		return fmt.Sprintf("%s: step %s: %s%s", e.Code, e.StepID, prefix, e.Message)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, prefix, e.Message)
}

// NewTimeoutError builds an ExecutionError marked as a timeout.
func NewTimeoutError(stepID string, d interface{ String() string }) *ExecutionError {
	return &ExecutionError{
		Code:    CodeTimeout,
		StepID:  stepID,
		Message: fmt.Sprintf("exceeded %s", d.String()),
		Timeout: true,
	}
}

// RemoteError covers a failed remote execution against a specific peer,
// retried by the broker's failover loop against other peers.
type RemoteError struct {
	Code    Code
	PeerID  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.PeerID == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: peer %s: %s", e.Code, e.PeerID, e.Message)
}

// SystemError covers unexpected failures outside the above taxonomy.
type SystemError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *SystemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SystemError) Unwrap() error { return e.Cause }

// Is implements errors.Is comparison by Code for the error types above.
func (e *UserError) Is(target error) bool      { return codeOf(target) == e.Code }
func (e *PolicyError) Is(target error) bool    { return codeOf(target) == e.Code }
func (e *ToolError) Is(target error) bool      { return codeOf(target) == e.Code }
func (e *ExecutionError) Is(target error) bool { return codeOf(target) == e.Code }
func (e *RemoteError) Is(target error) bool    { return codeOf(target) == e.Code }
func (e *SystemError) Is(target error) bool    { return codeOf(target) == e.Code }

func codeOf(err error) Code {
	switch e := err.(type) {
	case *UserError:
		return e.Code
	case *PolicyError:
		return e.Code
	case *ToolError:
		return e.Code
	case *ExecutionError:
		return e.Code
	case *RemoteError:
		return e.Code
	case *SystemError:
		return e.Code
	default:
		return ""
	}
}

// As is a thin convenience wrapper so callers don't need to import errors
// directly just to unwrap one of these types.
func As(err error, target interface{}) bool { return errors.As(err, target) }
