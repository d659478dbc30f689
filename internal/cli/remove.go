// remove.go implements the "envx remove" command, which deletes a named
// environment from the backing manager.
//
// By default the command prompts for confirmation before proceeding; the
// --force flag skips the prompt for scripted use.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/conda"
	"github.com/Wytamma/env-exec/internal/docker"
	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/model"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool
}

// NewRemoveCommand creates the "remove" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an environment",
		Long: `Remove a named environment from the backing manager.

Unless --force is specified, the command prompts for confirmation.

Examples:
  envx remove my-env
  envx remove --force my-env
  envx remove -m docker py-sandbox`,

		// Exactly one positional argument (environment name) is required.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")

	return cmd
}

// runRemove is the main logic function for the remove command.
func runRemove(ctx context.Context, name string, flags *removeFlags) error {
	e, cleanup, err := environmentByName(name)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := e.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("environment %q does not exist", name))
	}

	if !flags.force {
		confirmed, err := promptConfirmation(name)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	logger.Debug("removing environment", "name", name, "manager", manager)
	if err := e.Remove(ctx); err != nil {
		return err
	}

	printRemoveResult(name)
	return nil
}

// environmentByName builds a bare environment handle for an existing
// environment: just the name, no dependencies — remove and exec do not care
// what is installed.
func environmentByName(name string) (env.Environment, func(), error) {
	noop := func() {}

	switch manager {
	case "conda", "mamba":
		cfg := conda.Config{Name: name}
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
		e, err := docker.NewEnv(docker.Config{Name: name})
		if err != nil {
			return nil, nil, err
		}
		return e, func() { _ = e.Close() }, nil

	default:
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("unknown environment manager %q (valid: conda, mamba, docker)", manager))
	}
}

// promptConfirmation asks the user to confirm the remove operation.
// It reads a single line from stdin and checks for "y" or "yes".
// A closed stdin or any other answer counts as "no".
func promptConfirmation(name string) (bool, error) {
	fmt.Printf("About to remove environment %q (%s)\n", name, manager)
	fmt.Print("Continue? [y/N] ")

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// printRemoveResult outputs the remove command result in text or JSON format.
func printRemoveResult(name string) {
	if jsonOutput {
		doc := map[string]any{
			"name":    name,
			"manager": manager,
			"action":  "removed",
		}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Removed environment %q\n", name)
}
