package env

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wytamma/env-exec/internal/model"
)

// fakeEnv is an in-memory Environment with call counters, so lifecycle
// tests can assert exactly which operations ran and in what state the
// environment ended up.
type fakeEnv struct {
	name      string
	ephemeral bool
	requested []model.Dependency
	installed []model.InstalledPackage

	exists bool

	createCalls  int
	installCalls int
	removeCalls  int
	execCalls    int

	createErr  error
	installErr error
	removeErr  error
	execErr    error

	lastInstall []model.Dependency
}

func (f *fakeEnv) Name() string                    { return f.name }
func (f *fakeEnv) Ephemeral() bool                 { return f.ephemeral }
func (f *fakeEnv) Requested() []model.Dependency   { return f.requested }
func (f *fakeEnv) Exists(context.Context) (bool, error) { return f.exists, nil }

func (f *fakeEnv) Create(context.Context) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.exists = true
	return nil
}

func (f *fakeEnv) Installed(context.Context) ([]model.InstalledPackage, error) {
	return f.installed, nil
}

func (f *fakeEnv) Install(_ context.Context, deps []model.Dependency) error {
	f.installCalls++
	f.lastInstall = deps
	if f.installErr != nil {
		return f.installErr
	}
	for _, d := range deps {
		f.installed = append(f.installed, model.InstalledPackage{Name: d.Name, Version: d.Version})
	}
	return nil
}

func (f *fakeEnv) Remove(context.Context) error {
	f.removeCalls++
	if f.removeErr != nil {
		return f.removeErr
	}
	f.exists = false
	return nil
}

func (f *fakeEnv) Exec(_ context.Context, command string, _ ExecOptions) (*model.ExecResult, error) {
	f.execCalls++
	if f.execErr != nil {
		return nil, f.execErr
	}
	return &model.ExecResult{Command: []string{"bash", "-c", command}}, nil
}

func deps(t *testing.T, specs ...string) []model.Dependency {
	t.Helper()
	parsed, err := model.ParseDependencies(specs)
	require.NoError(t, err)
	return parsed
}

// TestOpen_CreatesAbsentEnvironment verifies entry creates the environment
// when it does not exist and skips the install step when creation already
// satisfied the requested set.
func TestOpen_CreatesAbsentEnvironment(t *testing.T) {
	f := &fakeEnv{name: "test_env", requested: deps(t, "numpy")}
	f.installed = []model.InstalledPackage{{Name: "numpy", Version: "1.26.4"}}

	session, err := Open(context.Background(), f, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.createCalls)
	assert.Equal(t, 0, f.installCalls, "satisfied dependencies must not trigger an install")
	assert.Equal(t, model.StateEnsured, session.State())
}

// TestOpen_SkipsCreateWhenPresent verifies entry does not recreate an
// existing environment.
func TestOpen_SkipsCreateWhenPresent(t *testing.T) {
	f := &fakeEnv{name: "test_env", exists: true}

	_, err := Open(context.Background(), f, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.createCalls)
}

// TestOpen_MissingDependencies verifies entry fails with a
// MissingDependencyError naming exactly the unsatisfied items when
// InstallMissing is off.
func TestOpen_MissingDependencies(t *testing.T) {
	f := &fakeEnv{
		name:      "test_env",
		exists:    true,
		requested: deps(t, "numpy", "pandas=2.0.0"),
		installed: []model.InstalledPackage{{Name: "numpy", Version: "1.26.4"}},
	}

	_, err := Open(context.Background(), f, Options{})
	var missingErr *model.MissingDependencyError
	require.ErrorAs(t, err, &missingErr)
	require.Len(t, missingErr.Missing, 1)
	assert.Equal(t, "pandas=2.0.0", missingErr.Missing[0].String())
	assert.Equal(t, 0, f.installCalls)
}

// TestOpen_InstallMissing verifies that InstallMissing installs exactly the
// missing set and entry succeeds.
func TestOpen_InstallMissing(t *testing.T) {
	f := &fakeEnv{
		name:      "test_env",
		exists:    true,
		requested: deps(t, "numpy", "pandas=2.0.0"),
		installed: []model.InstalledPackage{{Name: "numpy", Version: "1.26.4"}},
	}

	_, err := Open(context.Background(), f, Options{InstallMissing: true})
	require.NoError(t, err)
	require.Equal(t, 1, f.installCalls)
	require.Len(t, f.lastInstall, 1)
	assert.Equal(t, "pandas", f.lastInstall[0].Name)
}

// TestOpen_SkipCheck verifies SkipCheck bypasses reconciliation entirely,
// even when dependencies would be missing.
func TestOpen_SkipCheck(t *testing.T) {
	f := &fakeEnv{name: "test_env", exists: true, requested: deps(t, "numpy")}

	_, err := Open(context.Background(), f, Options{SkipCheck: true})
	require.NoError(t, err)
	assert.Equal(t, 0, f.installCalls)
}

// TestOpen_Force verifies a forced entry removes the existing environment
// before recreating it.
func TestOpen_Force(t *testing.T) {
	f := &fakeEnv{name: "test_env", exists: true}

	_, err := Open(context.Background(), f, Options{Force: true, SkipCheck: true})
	require.NoError(t, err)
	assert.Equal(t, 1, f.removeCalls)
	assert.Equal(t, 1, f.createCalls)
}

// TestOpen_ForceAbsent verifies Force against an absent environment does
// not attempt a removal.
func TestOpen_ForceAbsent(t *testing.T) {
	f := &fakeEnv{name: "test_env"}

	_, err := Open(context.Background(), f, Options{Force: true, SkipCheck: true})
	require.NoError(t, err)
	assert.Equal(t, 0, f.removeCalls)
	assert.Equal(t, 1, f.createCalls)
}

// TestClose_RemovesEphemeral verifies ephemeral environments are removed on
// close and named ones persist.
func TestClose_RemovesEphemeral(t *testing.T) {
	ephemeral := &fakeEnv{name: "env-exec-abc123", ephemeral: true, exists: true}
	session, err := Open(context.Background(), ephemeral, Options{SkipCheck: true})
	require.NoError(t, err)
	require.NoError(t, session.Close(context.Background()))
	assert.Equal(t, 1, ephemeral.removeCalls)
	assert.Equal(t, model.StateTornDown, session.State())

	named := &fakeEnv{name: "kept_env", exists: true}
	session, err = Open(context.Background(), named, Options{SkipCheck: true})
	require.NoError(t, err)
	require.NoError(t, session.Close(context.Background()))
	assert.Equal(t, 0, named.removeCalls, "explicitly named environments persist after close")
}

// TestClose_Idempotent verifies only the first Close performs teardown.
func TestClose_Idempotent(t *testing.T) {
	f := &fakeEnv{name: "env-exec-abc123", ephemeral: true, exists: true}
	session, err := Open(context.Background(), f, Options{SkipCheck: true})
	require.NoError(t, err)

	require.NoError(t, session.Close(context.Background()))
	require.NoError(t, session.Close(context.Background()))
	assert.Equal(t, 1, f.removeCalls)
}

// TestExec_AfterClose verifies a closed session refuses further commands.
func TestExec_AfterClose(t *testing.T) {
	f := &fakeEnv{name: "test_env", exists: true}
	session, err := Open(context.Background(), f, Options{SkipCheck: true})
	require.NoError(t, err)
	require.NoError(t, session.Close(context.Background()))

	_, err = session.Exec(context.Background(), "ls")
	require.Error(t, err)
	assert.Equal(t, 0, f.execCalls)
}

// TestRun_TeardownOnBodyFailure verifies the scoped form: a failing body
// still tears down an ephemeral environment, and the body's error is what
// reaches the caller.
func TestRun_TeardownOnBodyFailure(t *testing.T) {
	f := &fakeEnv{name: "env-exec-abc123", ephemeral: true, exists: true}
	bodyErr := &model.ExecutionError{ExitCode: 2}

	err := Run(context.Background(), f, Options{SkipCheck: true}, func(s *Session) error {
		_, execErr := s.Exec(context.Background(), "exit 2")
		require.NoError(t, execErr)
		return bodyErr
	})

	assert.ErrorIs(t, err, bodyErr)
	assert.Equal(t, 1, f.removeCalls, "teardown must run on the failure path")
}

// TestRun_BodyErrorWinsOverTeardownError verifies that when both the body
// and teardown fail, the body's error is reported.
func TestRun_BodyErrorWinsOverTeardownError(t *testing.T) {
	f := &fakeEnv{name: "env-exec-abc123", ephemeral: true, exists: true, removeErr: errors.New("remove failed")}
	bodyErr := errors.New("body failed")

	err := Run(context.Background(), f, Options{SkipCheck: true}, func(*Session) error {
		return bodyErr
	})

	assert.ErrorIs(t, err, bodyErr)
}

// TestRun_TeardownErrorReported verifies a teardown failure surfaces when
// the body itself succeeded.
func TestRun_TeardownErrorReported(t *testing.T) {
	removeErr := errors.New("remove failed")
	f := &fakeEnv{name: "env-exec-abc123", ephemeral: true, exists: true, removeErr: removeErr}

	err := Run(context.Background(), f, Options{SkipCheck: true}, func(*Session) error {
		return nil
	})

	assert.ErrorIs(t, err, removeErr)
}

// TestRun_OpenFailureSkipsBody verifies the body never runs when entry
// fails.
func TestRun_OpenFailureSkipsBody(t *testing.T) {
	createErr := errors.New("create failed")
	f := &fakeEnv{name: "test_env", createErr: createErr}

	ran := false
	err := Run(context.Background(), f, Options{SkipCheck: true}, func(*Session) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, createErr)
	assert.False(t, ran)
	assert.Equal(t, 0, f.removeCalls, "a failed entry leaves the environment in place")
}

// TestMissingDependenciesHelper verifies the derived query delegates to the
// reconciliation set difference.
func TestMissingDependenciesHelper(t *testing.T) {
	f := &fakeEnv{
		requested: deps(t, "numpy", "scipy"),
		installed: []model.InstalledPackage{{Name: "numpy", Version: "1.26.4"}},
	}

	missing, err := MissingDependencies(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "scipy", missing[0].Name)
}
