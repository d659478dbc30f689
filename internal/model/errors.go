// errors.go defines the public error surface of env-exec.
//
// Callers are expected to branch on these types with errors.As:
// ExecutionError for failed process invocations, MissingDependencyError
// for failed dependency reconciliation, and ManagerNotFoundError when the
// backing tool itself is unavailable. Each carries enough structured detail
// (command, exit code, missing names) to act on programmatically.
package model

import (
	"fmt"
	"strings"
)

// ExecutionError indicates that a process invocation — environment creation,
// package installation, removal, or a user command run inside the
// environment — exited non-zero.
//
// Execution errors are never retried; they surface immediately to the
// caller. When the command's output was captured, Stderr holds the decoded
// standard error text for diagnostics.
type ExecutionError struct {
	// Command is the full argv of the failed invocation.
	Command []string

	// ExitCode is the non-zero exit status of the process. -1 when the
	// process failed to start at all.
	ExitCode int

	// Stderr is the captured standard error text, if output capture was
	// requested. Empty otherwise.
	Stderr string

	// Err is the underlying error from the process runner, if any.
	Err error
}

// Error satisfies the error interface. The message always names the failing
// command and exit code; captured stderr is appended when available because
// it usually contains the actual reason the tool failed.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", strings.Join(e.Command, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// MissingDependencyError indicates that, after the environment was ensured
// to exist, one or more requested dependencies were absent and installing
// missing dependencies was not requested.
//
// This error is raised before any exec attempt, so a caller that sees it
// knows no user command has run.
type MissingDependencyError struct {
	// Missing lists the unsatisfied dependencies, in request order.
	Missing []Dependency
}

// Error satisfies the error interface. It names every missing dependency
// so the caller can see the exact unsatisfied set at a glance.
func (e *MissingDependencyError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, d := range e.Missing {
		names = append(names, d.String())
	}
	return fmt.Sprintf("missing dependencies: %s (re-run with install-missing to add them)", strings.Join(names, ", "))
}

// ManagerNotFoundError indicates that the backing environment manager is not
// usable at all — the conda/mamba binary is not on PATH, or the Docker
// daemon is unreachable.
type ManagerNotFoundError struct {
	// Manager is the name of the unavailable tool (e.g. "conda", "docker").
	Manager string

	// Err is the underlying lookup or connection error.
	Err error
}

// Error satisfies the error interface.
func (e *ManagerNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("environment manager %q is not available: %v", e.Manager, e.Err)
	}
	return fmt.Sprintf("environment manager %q is not available", e.Manager)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ManagerNotFoundError) Unwrap() error {
	return e.Err
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of an envx command.
//
// Note that `envx run` propagates the child command's own exit code when the
// command inside the environment fails, rather than ExitExecFailed — the
// wrapper is transparent to scripts checking $?.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManagerNotFound indicates the environment manager binary or
	// daemon is not available.
	ExitManagerNotFound ExitCode = 2

	// ExitMissingDependency indicates dependency reconciliation failed
	// and installing missing dependencies was not requested.
	ExitMissingDependency ExitCode = 3

	// ExitExecFailed indicates a lifecycle operation (create, install,
	// remove) failed. Failures of the user's own command propagate that
	// command's exit code instead.
	ExitExecFailed ExitCode = 4

	// ExitEnvNotFound indicates the named environment does not exist.
	ExitEnvNotFound ExitCode = 5

	// ExitUserCancelled indicates the user declined an interactive prompt.
	ExitUserCancelled ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
