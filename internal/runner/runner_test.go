package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wytamma/env-exec/internal/model"
)

// TestRun_Capture verifies that a successful command's stdout is captured
// and decoded exactly as written.
func TestRun_Capture(t *testing.T) {
	r := New()

	result, err := r.Run(context.Background(), Invocation{
		Args:    []string{"sh", "-c", "echo hello world"},
		Capture: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world\n", result.Stdout)
	assert.Empty(t, result.Stderr)
}

// TestRun_CaptureStderr verifies stdout and stderr are captured into
// separate fields, so JSON parsers of stdout never see warning text.
func TestRun_CaptureStderr(t *testing.T) {
	r := New()

	result, err := r.Run(context.Background(), Invocation{
		Args:    []string{"sh", "-c", "echo out; echo warn >&2"},
		Capture: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "warn\n", result.Stderr)
}

// TestRun_NonZeroExit verifies a failing command returns both the result
// and an ExecutionError carrying the argv, exit code, and stderr.
func TestRun_NonZeroExit(t *testing.T) {
	r := New()

	result, err := r.Run(context.Background(), Invocation{
		Args:    []string{"sh", "-c", "echo broken >&2; exit 3"},
		Capture: true,
	})

	require.Error(t, err)
	require.NotNil(t, result, "result should accompany the error for output inspection")
	assert.Equal(t, 3, result.ExitCode)

	var execErr *model.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "broken")
	assert.Equal(t, []string{"sh", "-c", "echo broken >&2; exit 3"}, execErr.Command)
}

// TestRun_BinaryNotFound verifies a command that cannot start reports exit
// code -1 rather than a fabricated status.
func TestRun_BinaryNotFound(t *testing.T) {
	r := New()

	_, err := r.Run(context.Background(), Invocation{
		Args:    []string{"env-exec-no-such-binary-52341"},
		Capture: true,
	})

	var execErr *model.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, -1, execErr.ExitCode)
}

// TestRun_EmptyCommand verifies the guard against an empty argv.
func TestRun_EmptyCommand(t *testing.T) {
	r := New()

	_, err := r.Run(context.Background(), Invocation{})
	require.Error(t, err)

	// An empty argv is a programming error, not a process failure.
	var execErr *model.ExecutionError
	assert.False(t, errors.As(err, &execErr))
}

// TestRun_Env verifies extra environment variables reach the child on top
// of the inherited environment.
func TestRun_Env(t *testing.T) {
	r := New()

	result, err := r.Run(context.Background(), Invocation{
		Args:    []string{"sh", "-c", "echo $ENV_EXEC_TEST_VAR"},
		Env:     []string{"ENV_EXEC_TEST_VAR=42"},
		Capture: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "42\n", result.Stdout)
}

// TestRun_Dir verifies the working directory is honored.
func TestRun_Dir(t *testing.T) {
	r := New()
	dir := t.TempDir()

	result, err := r.Run(context.Background(), Invocation{
		Args:    []string{"pwd"},
		Dir:     dir,
		Capture: true,
	})

	require.NoError(t, err)
	// macOS tempdirs sit behind a /private symlink, so compare suffixes.
	assert.Contains(t, result.Stdout, dir)
}

// TestLookPath distinguishes present and absent binaries.
func TestLookPath(t *testing.T) {
	assert.NoError(t, LookPath("sh"))
	assert.Error(t, LookPath("env-exec-no-such-binary-52341"))
}
