// exec.go implements the "envx exec" command, which runs a command inside
// an existing environment without any lifecycle management: no creation,
// no dependency reconciliation, no teardown.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/model"
)

// execFlags holds the flag values for the exec command.
type execFlags struct {
	name    string // --name: the environment to execute in (required)
	capture bool   // --capture: capture output instead of streaming it
}

// NewExecCommand creates the "exec" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewExecCommand() *cobra.Command {
	flags := &execFlags{}

	cmd := &cobra.Command{
		Use:   "exec --name <env> -- <command...>",
		Short: "Run a command in an existing environment",
		Long: `Run a command inside an existing environment. The environment must
already exist; use "envx run" for the full create/use/destroy lifecycle.

The command's exit code is propagated.

Examples:
  envx exec -n my-env -- python --version
  envx exec -m docker -n py-sandbox -- pip list`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Environment to execute in (required)")
	cmd.Flags().BoolVar(&flags.capture, "capture", false, "Capture output and print it after the command exits")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// runExec is the main logic function for the exec command.
func runExec(ctx context.Context, args []string, flags *execFlags) error {
	e, cleanup, err := environmentByName(flags.name)
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
			fmt.Sprintf("environment %q does not exist", flags.name))
	}

	command := strings.Join(args, " ")
	logger.Debug("executing command", "name", flags.name, "command", command)

	// JSON output needs the captured text, so --json implies capture.
	capture := flags.capture || jsonOutput

	result, execErr := e.Exec(ctx, command, env.ExecOptions{Capture: capture})
	printRunResult(result, execErr)
	return execErr
}
