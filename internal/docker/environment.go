// environment.go implements the env.Environment contract for Docker.
//
// The environment container is created from a Python base image and kept
// alive with a sleep entrypoint; the container name doubles as the
// environment name. Dependencies are pip packages installed inside the
// container, so the installed-package listing comes from
// `pip list --format=json` rather than a conda registry.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"

	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/model"
	"github.com/Wytamma/env-exec/internal/runner"
)

// DefaultImage is the base image used when the caller does not specify one.
// A slim Python image keeps pulls fast while still shipping pip, which the
// dependency operations rely on.
const DefaultImage = "python:3-slim"

// Config describes a docker environment handle.
type Config struct {
	// Name is the environment name (and container name). When empty, a
	// random name is generated and the environment becomes ephemeral.
	Name string

	// Keep overrides ephemerality for generated names.
	Keep bool

	// Dependencies is the requested pip dependency set, in order.
	Dependencies []model.Dependency

	// Image is the base image for the environment container.
	// Empty selects DefaultImage.
	Image string

	// Client is the Docker client. Nil makes NewEnv create one with
	// socket autodetection.
	Client *Client

	// Runner executes `docker exec` invocations. Nil selects the
	// production os/exec runner.
	Runner runner.Runner
}

// Env is a handle on a docker-backed environment. Like the conda handle it
// owns only its name and dependency list; the container is external state
// identified by name, with no coordination between aliasing handles.
type Env struct {
	name      string
	ephemeral bool
	deps      []model.Dependency
	image     string
	cli       *Client
	run       runner.Runner
}

var _ env.Environment = (*Env)(nil)

// NewEnv creates a docker environment handle. The Docker daemon is not
// contacted until the first lifecycle operation.
func NewEnv(cfg Config) (*Env, error) {
	name := cfg.Name
	ephemeral := false
	if name == "" {
		name = model.RandomName()
		ephemeral = !cfg.Keep
	}

	img := cfg.Image
	if img == "" {
		img = DefaultImage
	}

	cli := cfg.Client
	if cli == nil {
		created, err := NewClient()
		if err != nil {
			return nil, err
		}
		cli = created
	}

	run := cfg.Runner
	if run == nil {
		run = runner.New()
	}

	return &Env{
		name:      name,
		ephemeral: ephemeral,
		deps:      cfg.Dependencies,
		image:     img,
		cli:       cli,
		run:       run,
	}, nil
}

// Name returns the environment name.
func (e *Env) Name() string { return e.name }

// Ephemeral reports whether the environment is removed on session exit.
func (e *Env) Ephemeral() bool { return e.ephemeral }

// Requested returns the declared dependency set.
func (e *Env) Requested() []model.Dependency { return e.deps }

// Verify checks that the Docker daemon is reachable.
func (e *Env) Verify(ctx context.Context) error {
	return e.cli.Ping(ctx)
}

// Close releases the underlying Docker client.
func (e *Env) Close() error {
	return e.cli.Close()
}

// find returns the environment's container, or nil when it does not exist.
// The lookup filters on the managed-by and name labels rather than the
// container name, so renamed containers do not shadow environments.
func (e *Env) find(ctx context.Context) (*types.Container, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelName+"="+e.name),
	)

	// All:true includes stopped containers — an environment whose container
	// exited still exists and must be discoverable for removal.
	containers, err := e.cli.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return nil, nil
	}
	return &containers[0], nil
}

// Exists reports whether the environment's container is known to the daemon.
func (e *Env) Exists(ctx context.Context) (bool, error) {
	ctr, err := e.find(ctx)
	if err != nil {
		return false, err
	}
	return ctr != nil, nil
}

// Create pulls the base image, creates the labeled environment container,
// starts it, and installs the requested dependencies with pip.
func (e *Env) Create(ctx context.Context) error {
	// Pull the image first. The pull response is a progress stream that
	// must be drained to completion — the pull has not finished until the
	// stream ends.
	reader, err := e.cli.inner.ImagePull(ctx, e.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w", e.image, err)
	}
	_, copyErr := io.Copy(io.Discard, reader)
	_ = reader.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to pull image %q: %w", e.image, copyErr)
	}

	// "sleep infinity" keeps the container alive so commands can be
	// exec'd into it for the lifetime of the environment.
	created, err := e.cli.inner.ContainerCreate(ctx,
		&container.Config{
			Image:  e.image,
			Cmd:    []string{"sleep", "infinity"},
			Labels: BuildLabels(e.name, e.image, e.ephemeral, time.Now()),
		},
		&container.HostConfig{},
		nil, nil, e.name,
	)
	if err != nil {
		return fmt.Errorf("failed to create container for environment %q: %w", e.name, err)
	}

	if err := e.cli.inner.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container for environment %q: %w", e.name, err)
	}

	if len(e.deps) > 0 {
		return e.Install(ctx, e.deps)
	}
	return nil
}

// Installed lists the pip packages present in the environment.
// `pip list --format=json` prints an array of {"name", "version"} records,
// which map directly onto InstalledPackage.
func (e *Env) Installed(ctx context.Context) ([]model.InstalledPackage, error) {
	result, err := e.run.Run(ctx, runner.Invocation{
		Args:    []string{"docker", "exec", e.name, "python", "-m", "pip", "list", "--format=json"},
		Capture: true,
	})
	if err != nil {
		return nil, err
	}

	var packages []model.InstalledPackage
	if err := json.Unmarshal([]byte(result.Stdout), &packages); err != nil {
		return nil, fmt.Errorf("failed to parse pip list output: %w", err)
	}
	return packages, nil
}

// Install installs packages into the running environment container with pip.
func (e *Env) Install(ctx context.Context, deps []model.Dependency) error {
	if len(deps) == 0 {
		return nil
	}

	args := []string{"docker", "exec", e.name, "python", "-m", "pip", "install", "--quiet"}
	for _, d := range deps {
		args = append(args, pipSpec(d))
	}

	if _, err := e.run.Run(ctx, runner.Invocation{Args: args, Capture: true}); err != nil {
		return fmt.Errorf("failed to install packages into environment %q: %w", e.name, err)
	}
	return nil
}

// Remove force-removes the environment container. A missing container makes
// Remove a no-op, keeping teardown idempotent.
func (e *Env) Remove(ctx context.Context) error {
	ctr, err := e.find(ctx)
	if err != nil {
		return err
	}
	if ctr == nil {
		return nil
	}

	// Force handles the common case of a still-running container: Docker
	// kills it before removal instead of refusing.
	if err := e.cli.inner.ContainerRemove(ctx, ctr.ID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container for environment %q: %w", e.name, err)
	}
	return nil
}

// Exec runs a shell command inside the environment container via
// `docker exec`. The command string goes through bash -c so shell syntax
// behaves the same as in the conda backend.
func (e *Env) Exec(ctx context.Context, command string, opts env.ExecOptions) (*model.ExecResult, error) {
	args := []string{"docker", "exec", e.name, "bash", "-c", command}
	return e.run.Run(ctx, runner.Invocation{Args: args, Capture: opts.Capture})
}

// pipSpec renders a dependency as a pip requirement specifier. pip spells
// exact pins "name==version" where conda uses a single "="; the remaining
// operators are shared between the two grammars.
func pipSpec(d model.Dependency) string {
	if d.Op == model.OpEqual {
		return d.Name + "==" + d.Version
	}
	return d.String()
}

// ListEnvironments returns metadata for every env-exec managed environment
// known to the Docker daemon, including stopped ones. Used by `envx list`.
func ListEnvironments(ctx context.Context, cli *Client) ([]EnvInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	infos := make([]EnvInfo, 0, len(containers))
	for _, ctr := range containers {
		info, err := ParseLabels(ctr.Labels)
		if err != nil {
			// A foreign container slipping through the filter is not worth
			// failing the whole listing over.
			continue
		}
		info.Status = ctr.State
		infos = append(infos, *info)
	}
	return infos, nil
}
