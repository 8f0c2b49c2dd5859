// Package main is the entry point for the reconda CLI.
//
// This binary rebuilds conda/mamba environments from declarative YAML
// environment files. It delegates all functionality to the internal/cli
// package, which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// by GoReleaser during the release process. During development, they
// default to "dev", "none", and "unknown" respectively.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mmr-tortoise/reconda/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags. They provide binary identification for the --version
// flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package.
	// This decouples the build system (GoReleaser ldflags) from the
	// CLI framework (cobra), keeping main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Create the root command with all subcommands registered, then
	// execute it with a signal-aware context. Ctrl-C cancels the
	// context, which kills any in-flight manager subprocess (solver
	// runs can take minutes) instead of orphaning it.
	rootCmd := cli.NewRootCommand()
	cli.Execute(newSignalContext(), rootCmd)
}

// newSignalContext returns a context that is cancelled on the first
// interrupt signal. A second interrupt falls through to Go's default
// handling and kills the process outright.
func newSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		cancel()
		signal.Stop(c)
	}()

	return ctx
}
