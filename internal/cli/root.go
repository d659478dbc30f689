// Package cli implements the cobra-based CLI commands for envx.
//
// Each subcommand (run, create, list, remove, exec) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands, the global flags, and the translation
// of domain errors into process exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Wytamma/env-exec/internal/model"
)

// Global flag variables shared across all subcommands. These are bound to
// cobra persistent flags on the root command, which makes them available to
// every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON
	// for machine consumption instead of human-readable text.
	jsonOutput bool

	// verbose enables debug-level logging on stderr.
	verbose bool

	// manager selects the environment backend: conda, mamba, or docker.
	manager string
)

// logger is the CLI's leveled logger. It writes to stderr so stdout stays
// reserved for command output (captured text, JSON documents).
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself performs no action — it provides help text and
// global flags. Functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envx",
		Short: "Execute commands in ephemeral computational environments",
		Long: `envx creates, uses, and destroys isolated computational environments
(Conda, Mamba, or Docker) and executes commands inside them.

Environments created without an explicit name are ephemeral: they are
removed automatically when the command finishes, on success and failure
alike. Named environments persist and are reused on subsequent runs.`,

		// We format errors and usage ourselves for cleaner output.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&manager, "manager", "m", "conda", "Environment manager (conda, mamba, docker)")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewRemoveCommand())
	rootCmd.AddCommand(NewExecCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into exit codes.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	printError(err)
	os.Exit(int(exitCodeFor(err)))
}

// exitCodeFor maps an error to the process exit code.
//
// CLIError carries its code explicitly. The domain error types map to their
// dedicated codes, with one special case: an ExecutionError from the user's
// own command carries that command's exit code, which is propagated verbatim
// so that scripts checking $? see the same status they would without envx.
func exitCodeFor(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	var missingErr *model.MissingDependencyError
	if errors.As(err, &missingErr) {
		return model.ExitMissingDependency
	}

	var managerErr *model.ManagerNotFoundError
	if errors.As(err, &managerErr) {
		return model.ExitManagerNotFound
	}

	var execErr *model.ExecutionError
	if errors.As(err, &execErr) {
		if execErr.ExitCode > 0 {
			return model.ExitCode(execErr.ExitCode)
		}
		return model.ExitExecFailed
	}

	return model.ExitGeneralError
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag. Errors go to stderr in
// both modes because stdout is reserved for successful command output.
func printError(err error) {
	if jsonOutput {
		doc := map[string]any{
			"error": map[string]any{
				"message": err.Error(),
			},
		}
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
