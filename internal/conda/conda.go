// Package conda implements the environment lifecycle contract on top of the
// Conda command-line interface.
//
// Every operation maps to one conda subcommand:
//
//	exists    → conda env list --json
//	create    → conda create --name <name> <deps...> --yes
//	installed → conda list --name <name> --json
//	install   → conda install --name <name> <deps...> --yes
//	remove    → conda env remove --name <name> --yes
//	exec      → conda run --name <name> bash -c <command>
//
// The conda CLI is treated as an external contract: success or failure comes
// from the exit code, and structured data comes from the --json output of
// the listing subcommands. Mamba is a drop-in reimplementation of the same
// CLI, so the Mamba backend is this backend pointed at a different binary.
package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/model"
	"github.com/Wytamma/env-exec/internal/runner"
)

// Config describes a conda environment handle.
type Config struct {
	// Name is the environment name. When empty, a random name is generated
	// and the environment becomes ephemeral (removed when its session ends).
	Name string

	// Keep overrides ephemerality for generated names: the environment
	// persists even though no explicit name was given.
	Keep bool

	// Dependencies is the requested dependency set, in order.
	Dependencies []model.Dependency

	// Channels lists extra conda channels passed to create and install
	// (e.g. "conda-forge" or "bioconda").
	Channels []string

	// Runner executes conda invocations. Nil selects the production
	// os/exec runner; tests substitute a fake returning canned output.
	Runner runner.Runner
}

// Env is a handle on a single conda environment. It holds only the name and
// requested dependency list in memory — the environment itself lives in
// conda's registry, and two handles with the same name alias the same
// external environment with no coordination between them.
type Env struct {
	name      string
	ephemeral bool
	deps      []model.Dependency
	channels  []string
	binary    string
	run       runner.Runner
}

// compile-time check that Env satisfies the lifecycle contract.
var _ env.Environment = (*Env)(nil)

// New creates a conda environment handle.
func New(cfg Config) *Env {
	return newEnv(cfg, "conda")
}

// NewMamba creates a handle backed by mamba instead of conda. Mamba speaks
// the exact same CLI (subcommands, flags, and --json output), so only the
// binary name differs.
func NewMamba(cfg Config) *Env {
	return newEnv(cfg, "mamba")
}

func newEnv(cfg Config, binary string) *Env {
	name := cfg.Name
	// No explicit name means the caller wants a throwaway environment:
	// generate a name and mark it for removal on session exit.
	ephemeral := false
	if name == "" {
		name = model.RandomName()
		ephemeral = !cfg.Keep
	}

	run := cfg.Runner
	if run == nil {
		run = runner.New()
	}

	return &Env{
		name:      name,
		ephemeral: ephemeral,
		deps:      cfg.Dependencies,
		channels:  cfg.Channels,
		binary:    binary,
		run:       run,
	}
}

// Name returns the environment name.
func (e *Env) Name() string { return e.name }

// Ephemeral reports whether the environment is removed on session exit.
func (e *Env) Ephemeral() bool { return e.ephemeral }

// Requested returns the declared dependency set.
func (e *Env) Requested() []model.Dependency { return e.deps }

// Manager returns the binary name driving this environment ("conda" or
// "mamba"). Used by the CLI for display and error messages.
func (e *Env) Manager() string { return e.binary }

// Verify checks that the manager binary is available on PATH.
// Returns a *model.ManagerNotFoundError when it is not, so the CLI can
// report a clear message instead of a failed exec.
func (e *Env) Verify() error {
	if err := runner.LookPath(e.binary); err != nil {
		return &model.ManagerNotFoundError{Manager: e.binary, Err: err}
	}
	return nil
}

// envList mirrors the JSON document printed by `conda env list --json`:
//
//	{"envs": ["/opt/conda", "/opt/conda/envs/test_env", ...]}
type envList struct {
	Envs []string `json:"envs"`
}

// Exists queries conda for the current environment list and reports whether
// this environment's name is among them. The answer is always live; nothing
// is cached between calls.
//
// Conda reports environments as filesystem paths, so the name is matched
// against each path's final component.
func (e *Env) Exists(ctx context.Context) (bool, error) {
	result, err := e.run.Run(ctx, runner.Invocation{
		Args:    []string{e.binary, "env", "list", "--json"},
		Capture: true,
	})
	if err != nil {
		return false, err
	}

	var list envList
	if err := json.Unmarshal([]byte(result.Stdout), &list); err != nil {
		return false, fmt.Errorf("failed to parse %s env list output: %w", e.binary, err)
	}

	for _, envPath := range list.Envs {
		if path.Base(envPath) == e.name {
			return true, nil
		}
	}
	return false, nil
}

// Create creates the environment with the requested dependencies in a single
// conda invocation. The --yes flag suppresses conda's interactive
// confirmation prompt, which would otherwise hang a non-interactive caller.
func (e *Env) Create(ctx context.Context) error {
	args := []string{e.binary, "create", "--name", e.name}
	args = append(args, e.channelArgs()...)
	args = append(args, depSpecs(e.deps)...)
	args = append(args, "--yes")

	if _, err := e.run.Run(ctx, runner.Invocation{Args: args, Capture: true}); err != nil {
		return fmt.Errorf("failed to create environment %q: %w", e.name, err)
	}
	return nil
}

// Installed lists the packages currently present in the environment.
// `conda list --json` prints an array of package records; only the name and
// version fields are relevant for dependency reconciliation.
func (e *Env) Installed(ctx context.Context) ([]model.InstalledPackage, error) {
	result, err := e.run.Run(ctx, runner.Invocation{
		Args:    []string{e.binary, "list", "--name", e.name, "--json"},
		Capture: true,
	})
	if err != nil {
		return nil, err
	}

	var packages []model.InstalledPackage
	if err := json.Unmarshal([]byte(result.Stdout), &packages); err != nil {
		return nil, fmt.Errorf("failed to parse %s list output: %w", e.binary, err)
	}
	return packages, nil
}

// Install adds packages to the existing environment.
func (e *Env) Install(ctx context.Context, deps []model.Dependency) error {
	if len(deps) == 0 {
		return nil
	}

	args := []string{e.binary, "install", "--name", e.name}
	args = append(args, e.channelArgs()...)
	args = append(args, depSpecs(deps)...)
	args = append(args, "--yes")

	if _, err := e.run.Run(ctx, runner.Invocation{Args: args, Capture: true}); err != nil {
		return fmt.Errorf("failed to install packages into environment %q: %w", e.name, err)
	}
	return nil
}

// Remove deletes the environment. Removing an environment that does not
// exist is a no-op: the existence check makes Remove idempotent, which the
// session teardown relies on when Close runs after a failed entry.
func (e *Env) Remove(ctx context.Context) error {
	exists, err := e.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	args := []string{e.binary, "env", "remove", "--name", e.name, "--yes"}
	if _, err := e.run.Run(ctx, runner.Invocation{Args: args, Capture: true}); err != nil {
		return fmt.Errorf("failed to remove environment %q: %w", e.name, err)
	}
	return nil
}

// Exec runs a shell command inside the environment via `conda run`, which
// activates the environment for the child process. The command string is
// handed to bash -c so pipes, globs, and quoting behave the way they would
// in an interactive shell.
//
// When output is not captured, --no-capture-output makes conda pass the
// child's streams straight through instead of buffering them; without it,
// conda withholds output until the command exits.
func (e *Env) Exec(ctx context.Context, command string, opts env.ExecOptions) (*model.ExecResult, error) {
	args := []string{e.binary, "run", "--name", e.name}
	if !opts.Capture {
		args = append(args, "--no-capture-output")
	}
	args = append(args, "bash", "-c", command)

	return e.run.Run(ctx, runner.Invocation{Args: args, Capture: opts.Capture})
}

// channelArgs renders the configured channels as repeated --channel flags.
func (e *Env) channelArgs() []string {
	args := make([]string, 0, len(e.channels)*2)
	for _, c := range e.channels {
		args = append(args, "--channel", c)
	}
	return args
}

// depSpecs renders dependencies in conda match-spec form ("pandas=2.0.0").
func depSpecs(deps []model.Dependency) []string {
	specs := make([]string, 0, len(deps))
	for _, d := range deps {
		specs = append(specs, d.String())
	}
	return specs
}

// DescribeCommand returns a human-readable rendering of the create command
// for error messages and verbose logging, e.g.
// "conda create --name test_env numpy pandas=2.0.0 --yes".
func (e *Env) DescribeCommand() string {
	parts := []string{e.binary, "create", "--name", e.name}
	parts = append(parts, depSpecs(e.deps)...)
	parts = append(parts, "--yes")
	return strings.Join(parts, " ")
}
