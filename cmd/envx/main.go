// Package main is the entry point for the envx CLI.
//
// This binary creates, uses, and destroys ephemeral computational
// environments (Conda, Mamba, Docker) and executes commands inside them.
// It delegates all functionality to the internal/cli package, which
// defines cobra commands.
package main

import (
	"github.com/Wytamma/env-exec/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// During development they default to "dev", "none", and "unknown".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package. This decouples
	// the build system (ldflags) from the CLI framework (cobra), keeping
	// main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
