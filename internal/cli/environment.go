// environment.go holds the flag set shared by the lifecycle subcommands and
// the factory that turns those flags into a backend environment handle.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/conda"
	"github.com/Wytamma/env-exec/internal/docker"
	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/envfile"
	"github.com/Wytamma/env-exec/internal/model"
)

// envFlags holds the environment-definition flags shared by the run, create,
// and exec commands.
type envFlags struct {
	name     string   // --name: explicit (persistent) environment name
	deps     []string // --dep: requested dependencies, repeatable
	channels []string // --channel: conda channels, repeatable
	file     string   // --file: environment spec file (yml/yaml/json/jsonc)
	image    string   // --image: base image for the docker backend
	keep     bool     // --keep: persist an unnamed environment
}

// register binds the shared environment flags onto a command.
func (f *envFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Environment name (default: generated, ephemeral)")
	cmd.Flags().StringArrayVarP(&f.deps, "dep", "d", nil, "Dependency to require (repeatable, e.g. -d numpy -d pandas=2.0.0)")
	cmd.Flags().StringArrayVarP(&f.channels, "channel", "c", nil, "Conda channel to use (repeatable)")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Environment spec file (environment.yml or .json/.jsonc)")
	cmd.Flags().StringVar(&f.image, "image", "", "Base image for the docker backend (default: "+docker.DefaultImage+")")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Keep the environment after the command finishes")
}

// resolved is the merged result of the spec file and command-line flags.
type resolved struct {
	name         string
	dependencies []model.Dependency
	channels     []string
}

// resolve merges the optional spec file with the command-line flags.
// File values are defaults; flags layer on top: an explicit --name wins over
// the file's name, --channel and --dep entries are appended after the
// file's own.
func (f *envFlags) resolve() (*resolved, error) {
	r := &resolved{name: f.name, channels: f.channels}

	if f.file != "" {
		spec, err := envfile.Load(f.file)
		if err != nil {
			return nil, err
		}
		if r.name == "" {
			r.name = spec.Name
		}
		r.channels = append(spec.Channels, f.channels...)
		r.dependencies = spec.Dependencies
		logger.Debug("loaded environment spec", "file", f.file, "name", spec.Name, "deps", len(spec.Dependencies))
	}

	flagDeps, err := model.ParseDependencies(f.deps)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid --dep value", err)
	}
	r.dependencies = append(r.dependencies, flagDeps...)

	if r.name != "" {
		if err := model.ValidateName(r.name); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
		}
	}

	return r, nil
}

// buildEnvironment constructs the backend environment handle selected by the
// global --manager flag. The returned cleanup function releases backend
// resources (the Docker client) and must be called when done; for backends
// without resources it is a no-op.
func buildEnvironment(f *envFlags) (env.Environment, func(), error) {
	r, err := f.resolve()
	if err != nil {
		return nil, nil, err
	}

	noop := func() {}

	switch manager {
	case "conda", "mamba":
		cfg := conda.Config{
			Name:         r.name,
			Keep:         f.keep,
			Dependencies: r.dependencies,
			Channels:     r.channels,
		}
		var e *conda.Env
		if manager == "mamba" {
			e = conda.NewMamba(cfg)
		} else {
			e = conda.New(cfg)
		}
		if err := e.Verify(); err != nil {
			return nil, nil, err
		}
		return e, noop, nil

	case "docker":
		e, err := docker.NewEnv(docker.Config{
			Name:         r.name,
			Keep:         f.keep,
			Dependencies: r.dependencies,
			Image:        f.image,
		})
		if err != nil {
			return nil, nil, err
		}
		return e, func() { _ = e.Close() }, nil

	default:
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("unknown environment manager %q (valid: conda, mamba, docker)", manager))
	}
}
