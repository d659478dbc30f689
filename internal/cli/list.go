// list.go implements the "envx list" command, which lists the environments
// known to the selected manager.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/conda"
	"github.com/Wytamma/env-exec/internal/docker"
	"github.com/Wytamma/env-exec/internal/model"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environments known to the manager",
		Long: `List the environments the selected manager currently knows about.

For conda and mamba this is every environment in the manager's registry.
For docker it is every env-exec managed container, including stopped ones.

Examples:
  envx list
  envx list -m docker --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
}

// runList is the main logic function for the list command.
func runList(ctx context.Context) error {
	switch manager {
	case "conda", "mamba":
		names, err := conda.ListEnvironments(ctx, nil, manager)
		if err != nil {
			return err
		}
		printNameList(names)
		return nil

	case "docker":
		cli, err := docker.NewClient()
		if err != nil {
			return err
		}
		defer func() { _ = cli.Close() }()

		infos, err := docker.ListEnvironments(ctx, cli)
		if err != nil {
			return err
		}
		printDockerList(infos)
		return nil

	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("unknown environment manager %q (valid: conda, mamba, docker)", manager))
	}
}

// printNameList outputs a plain environment name listing.
func printNameList(names []string) {
	if jsonOutput {
		doc := map[string]any{"manager": manager, "environments": names}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(names) == 0 {
		fmt.Println("No environments found")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

// printDockerList outputs the docker environment listing, which carries
// more metadata (image, status, ephemerality) than a bare name list.
func printDockerList(infos []docker.EnvInfo) {
	if jsonOutput {
		doc := map[string]any{"manager": manager, "environments": infos}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(infos) == 0 {
		fmt.Println("No environments found")
		return
	}
	for _, info := range infos {
		ephemeral := ""
		if info.Ephemeral {
			ephemeral = "  (ephemeral)"
		}
		fmt.Printf("%-24s %-10s %s%s\n", info.Name, info.Status, info.Image, ephemeral)
	}
}
