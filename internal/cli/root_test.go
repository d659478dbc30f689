package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wytamma/env-exec/internal/model"
)

// TestExitCodeFor verifies the mapping from domain errors to process exit
// codes, including propagation of the child command's own exit status.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{
			name: "cli error carries its code",
			err:  model.NewCLIError(model.ExitEnvNotFound, "no such environment"),
			want: model.ExitEnvNotFound,
		},
		{
			name: "missing dependency",
			err:  &model.MissingDependencyError{},
			want: model.ExitMissingDependency,
		},
		{
			name: "manager not found",
			err:  &model.ManagerNotFoundError{Manager: "conda"},
			want: model.ExitManagerNotFound,
		},
		{
			name: "child exit code propagates verbatim",
			err:  &model.ExecutionError{ExitCode: 42},
			want: model.ExitCode(42),
		},
		{
			name: "exec failure without a usable status",
			err:  &model.ExecutionError{ExitCode: -1},
			want: model.ExitExecFailed,
		},
		{
			name: "wrapped errors still map",
			err:  fmt.Errorf("run: %w", &model.ExecutionError{ExitCode: 7}),
			want: model.ExitCode(7),
		},
		{
			name: "unknown errors are general failures",
			err:  errors.New("something else"),
			want: model.ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

// TestEnvFlagsResolve_FlagsOnly verifies flag parsing without a spec file.
func TestEnvFlagsResolve_FlagsOnly(t *testing.T) {
	f := &envFlags{
		name:     "test_env",
		deps:     []string{"numpy", "pandas=2.0.0"},
		channels: []string{"conda-forge"},
	}

	r, err := f.resolve()
	require.NoError(t, err)
	assert.Equal(t, "test_env", r.name)
	assert.Equal(t, []string{"conda-forge"}, r.channels)
	require.Len(t, r.dependencies, 2)
	assert.Equal(t, "pandas=2.0.0", r.dependencies[1].String())
}

// TestEnvFlagsResolve_FileMerge verifies the merge rules: the file supplies
// defaults, an explicit --name wins, and flag channels and deps are
// appended after the file's own.
func TestEnvFlagsResolve_FileMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: file_env
channels:
  - bioconda
dependencies:
  - numpy
`), 0o644))

	f := &envFlags{
		file:     path,
		name:     "flag_env",
		deps:     []string{"scipy"},
		channels: []string{"conda-forge"},
	}

	r, err := f.resolve()
	require.NoError(t, err)
	assert.Equal(t, "flag_env", r.name, "--name overrides the file's name")
	assert.Equal(t, []string{"bioconda", "conda-forge"}, r.channels)
	require.Len(t, r.dependencies, 2)
	assert.Equal(t, "numpy", r.dependencies[0].Name)
	assert.Equal(t, "scipy", r.dependencies[1].Name)
}

// TestEnvFlagsResolve_FileNameDefault verifies the file's name applies when
// no --name is given.
func TestEnvFlagsResolve_FileNameDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "file_env"}`), 0o644))

	r, err := (&envFlags{file: path}).resolve()
	require.NoError(t, err)
	assert.Equal(t, "file_env", r.name)
}

// TestEnvFlagsResolve_InvalidDep verifies bad --dep values produce a CLI
// error with the general failure code.
func TestEnvFlagsResolve_InvalidDep(t *testing.T) {
	_, err := (&envFlags{deps: []string{"=broken"}}).resolve()

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestEnvFlagsResolve_InvalidName verifies name validation applies to the
// merged result.
func TestEnvFlagsResolve_InvalidName(t *testing.T) {
	_, err := (&envFlags{name: "has space"}).resolve()

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
}
