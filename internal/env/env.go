// Package env defines the environment lifecycle contract and the scoped
// session that drives it.
//
// An Environment is a named, isolated installation of dependencies managed
// by an external tool, in which commands can be executed with those
// dependencies available. Concrete backends (conda, mamba, docker) implement
// the Environment interface; the Session type layers the
// create → reconcile → use → teardown lifecycle on top of any backend.
package env

import (
	"context"

	"github.com/Wytamma/env-exec/internal/model"
)

// ExecOptions controls a single command execution inside an environment.
type ExecOptions struct {
	// Capture collects the command's stdout/stderr into the result instead
	// of streaming them to the terminal.
	Capture bool
}

// Environment is the capability set every backend must support.
//
// All operations are blocking external-tool calls and take a context for
// cancellation. Existence and installed-package queries always hit the
// backing manager live; implementations must not cache their answers.
type Environment interface {
	// Name returns the environment's unique name within its manager.
	Name() string

	// Ephemeral reports whether the environment should be removed when its
	// session ends. Environments with generated (non-explicit) names are
	// ephemeral by default.
	Ephemeral() bool

	// Requested returns the dependency set this environment was declared
	// with, in declaration order.
	Requested() []model.Dependency

	// Exists reports whether the named environment is currently known to
	// the backing manager.
	Exists(ctx context.Context) (bool, error)

	// Create ensures the named environment exists with the requested
	// dependencies. Creating an environment that already exists is the
	// backend's concern; callers use Exists first when idempotence matters.
	Create(ctx context.Context) error

	// Installed returns the packages currently present in the environment,
	// as reported by the manager.
	Installed(ctx context.Context) ([]model.InstalledPackage, error)

	// Install adds the given dependencies to an existing environment.
	Install(ctx context.Context, deps []model.Dependency) error

	// Remove deletes the environment from the backing manager.
	// Removing an environment that is already absent is not an error.
	Remove(ctx context.Context) error

	// Exec runs a shell command inside the environment's context and
	// returns the execution result. A non-zero exit is reported as a
	// *model.ExecutionError alongside the result.
	Exec(ctx context.Context, command string, opts ExecOptions) (*model.ExecResult, error)
}

// MissingDependencies queries the environment's installed packages and
// returns the requested dependencies that are not satisfied by them.
//
// This is the derived query backing dependency reconciliation; it is defined
// here (not per backend) so every backend reconciles identically.
func MissingDependencies(ctx context.Context, e Environment) ([]model.Dependency, error) {
	installed, err := e.Installed(ctx)
	if err != nil {
		return nil, err
	}
	return model.Missing(e.Requested(), installed), nil
}
