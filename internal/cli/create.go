// create.go implements the "envx create" command, which creates (or
// completes) a persistent environment without running anything in it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/env"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	envFlags
	force bool // --force: recreate the environment even if it exists
}

// NewCreateCommand creates the "create" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a persistent environment",
		Long: `Create an environment with the requested dependencies and leave it in
place for later use with "envx run" or "envx exec".

If the environment already exists, missing dependencies are installed so
the result always satisfies the requested set.

Examples:
  envx create -n my-env -d numpy -d pandas=2.0.0
  envx create -f environment.yml
  envx create -m docker -n py-sandbox -d requests`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.force, "force", false, "Recreate the environment even if it already exists")

	return cmd
}

// runCreate is the main logic function for the create command.
func runCreate(ctx context.Context, flags *createFlags) error {
	// Created environments always persist, even without an explicit name.
	flags.keep = true

	e, cleanup, err := buildEnvironment(&flags.envFlags)
	if err != nil {
		return err
	}
	defer cleanup()

	// Opening a session with InstallMissing ensures creation and full
	// dependency reconciliation in one step. Close is a no-op for a
	// persistent environment but still walks the state machine to
	// torn-down, keeping the lifecycle uniform across commands.
	session, err := env.Open(ctx, e, env.Options{InstallMissing: true, Force: flags.force})
	if err != nil {
		return err
	}
	if err := session.Close(ctx); err != nil {
		return err
	}

	printCreateResult(e)
	return nil
}

// printCreateResult outputs the create command result in text or JSON format.
func printCreateResult(e env.Environment) {
	if jsonOutput {
		deps := make([]string, 0, len(e.Requested()))
		for _, d := range e.Requested() {
			deps = append(deps, d.String())
		}
		doc := map[string]any{
			"name":         e.Name(),
			"manager":      manager,
			"dependencies": deps,
		}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Created environment %q\n", e.Name())
	if len(e.Requested()) > 0 {
		fmt.Println("  Dependencies:")
		for _, d := range e.Requested() {
			fmt.Printf("    %s\n", d.String())
		}
	}
}
