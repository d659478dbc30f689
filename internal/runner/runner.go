// Package runner provides synchronous execution of external commands.
//
// Every lifecycle operation in env-exec ultimately shells out to an external
// tool (conda, mamba, docker), so this package is the single choke point for
// process invocation. It exposes a small Runner interface rather than bare
// os/exec calls so that backends can be tested against a fake runner that
// returns canned tool output without the tool being installed.
//
// Execution is strictly synchronous and blocking: no retries, no internal
// timeouts. Cancellation is delegated to the caller's context, which kills
// the child process when cancelled.
package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/Wytamma/env-exec/internal/model"
)

// Invocation describes a single command line to run.
type Invocation struct {
	// Args is the full argv, program name first. Must be non-empty.
	Args []string

	// Dir is the working directory for the command. Empty means the
	// current process's working directory.
	Dir string

	// Env holds extra environment variables (KEY=VALUE form) appended to
	// the inherited process environment.
	Env []string

	// Capture controls output handling. When true, stdout and stderr are
	// collected into the result. When false, the child inherits this
	// process's streams, so tool output (progress bars, solver logs)
	// reaches the terminal directly.
	Capture bool
}

// Runner runs an external command to completion.
//
// Implementations return a *model.ExecutionError when the process exits
// non-zero, carrying the argv, exit code, and captured stderr if available.
// The accompanying ExecResult is still returned alongside the error so
// callers can inspect captured output of failed commands.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*model.ExecResult, error)
}

// ExecRunner is the production Runner implementation backed by os/exec.
// It is stateless and safe for concurrent use.
type ExecRunner struct{}

// New creates a new ExecRunner.
//
// There is no configuration today; the constructor exists so callers hold
// a Runner value and tests can substitute a fake without touching call sites.
func New() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the invocation and blocks until the process exits.
//
// On a non-zero exit it returns the ExecResult together with a
// *model.ExecutionError. Failure to start the process at all (binary not on
// PATH, permission denied) is reported with exit code -1.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*model.ExecResult, error) {
	if len(inv.Args) == 0 {
		return nil, errors.New("runner: empty command")
	}

	// #nosec G204 — argv is assembled by the backends, not raw user input
	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir

	// Inherit the current process environment and append any extras.
	// os.Environ() returns a copy, so modifications don't affect this process.
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	// Capture stdout and stderr separately so stderr can be attached to
	// errors while stdout stays clean for parsing (conda's --json output
	// goes to stdout, its warnings to stderr).
	var stdout, stderr strings.Builder
	if inv.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
	}

	err := cmd.Run()

	result := &model.ExecResult{
		Command:  inv.Args,
		ExitCode: exitCode(cmd, err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		return result, &model.ExecutionError{
			Command:  inv.Args,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// exitCode extracts the child's exit status. cmd.ProcessState is nil when
// the process never started, in which case -1 marks "did not run".
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// LookPath reports whether the named binary is available on PATH.
// Backends use this as a fast pre-flight check so that a missing manager
// is reported as a ManagerNotFoundError instead of a confusing exec failure.
func LookPath(binary string) error {
	_, err := exec.LookPath(binary)
	return err
}
