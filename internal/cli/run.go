// run.go implements the "envx run" command — the primary user-facing
// operation. It performs the full scoped lifecycle: create or reuse an
// environment, reconcile its dependencies, execute the command inside it,
// and tear the environment down again per the persistence rule.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/env"
	"github.com/Wytamma/env-exec/internal/model"
)

// runFlags holds the flag values specific to the run command, on top of the
// shared environment-definition flags.
type runFlags struct {
	envFlags
	installMissing bool // --install-missing: install unsatisfied dependencies
	noCheck        bool // --no-check: skip dependency reconciliation
	force          bool // --force: recreate the environment even if it exists
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command...>",
		Short: "Run a command inside an environment",
		Long: `Run a command inside an environment, creating the environment first if
it does not exist and removing it afterwards unless it was explicitly named
(or --keep was given).

If the environment already exists, its installed packages are checked
against the requested dependencies. Missing dependencies fail the run
unless --install-missing is given. The command's exit code is propagated.

Examples:
  envx run -d cowpy -- cowpy "hello"
  envx run -n my-env -d numpy -d pandas=2.0.0 -- python train.py
  envx run -f environment.yml --install-missing -- pytest
  envx run -m docker -d requests -- python -c "import requests"`,

		// At least the command to execute must be present after the flags.
		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&flags.installMissing, "install-missing", "i", false, "Install missing dependencies instead of failing")
	cmd.Flags().BoolVar(&flags.noCheck, "no-check", false, "Skip the dependency check")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Recreate the environment even if it already exists")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(ctx context.Context, args []string, flags *runFlags) error {
	e, cleanup, err := buildEnvironment(&flags.envFlags)
	if err != nil {
		return err
	}
	defer cleanup()

	// The positional arguments form the command line to execute inside the
	// environment, joined into a single shell command string.
	command := strings.Join(args, " ")

	// Output is captured by default so it can be echoed (or emitted as
	// JSON) after the command completes. Verbose mode streams the child's
	// output directly instead, which is friendlier for long-running
	// commands with progress output.
	opts := env.Options{
		InstallMissing: flags.installMissing,
		SkipCheck:      flags.noCheck,
		Force:          flags.force,
		// JSON output needs the captured text, so --json always captures
		// even when --verbose would otherwise stream.
		Capture: !verbose || jsonOutput,
	}

	logger.Debug("entering environment scope",
		"name", e.Name(), "ephemeral", e.Ephemeral(), "deps", len(e.Requested()))

	var result *model.ExecResult
	runErr := env.Run(ctx, e, opts, func(session *env.Session) error {
		logger.Debug("executing command", "command", command)
		var execErr error
		result, execErr = session.Exec(ctx, command)
		return execErr
	})

	// Echo captured output whether or not the command succeeded — a failing
	// command's output is exactly what the user needs to see.
	printRunResult(result, runErr)

	if runErr != nil {
		// An ExecutionError from the user's command propagates as-is so the
		// root error handler can forward the child's exit code.
		return runErr
	}
	return nil
}

// printRunResult echoes a captured execution result to the terminal.
// In JSON mode the whole result (command, exit code, output) is emitted as
// one document on stdout; in text mode captured stdout and stderr are
// replayed onto the matching streams.
func printRunResult(result *model.ExecResult, runErr error) {
	if result == nil {
		// Entry failed before the command ran (missing dependency, create
		// failure) — there is nothing to echo; the error itself is printed
		// by the root command's error handler.
		return
	}

	if jsonOutput {
		doc := struct {
			Command  []string `json:"command"`
			ExitCode int      `json:"exitCode"`
			Stdout   string   `json:"stdout"`
			Stderr   string   `json:"stderr"`
			Success  bool     `json:"success"`
		}{
			Command:  result.Command,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Success:  runErr == nil,
		}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return
	}

	if result.Stdout != "" {
		fmt.Print(result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(os.Stderr, result.Stderr)
	}

	var execErr *model.ExecutionError
	if runErr != nil && errors.As(runErr, &execErr) {
		logger.Debug("command failed", "exitCode", execErr.ExitCode)
	}
}
