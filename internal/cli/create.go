// Package cli — create.go implements the "reconda create" command.
//
// create is the non-destructive sibling of recreate: it runs the same
// bootstrap orchestration (see recreate.go) but refuses to touch an
// existing environment. It exists for first-time setup and for CI jobs
// that want a hard failure instead of a silent rebuild when the
// environment already exists.
package cli

import (
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the "create" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCreateCommand() *cobra.Command {
	flags := &bootstrapFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the project environment from its YAML file",
		Long: `Create the project's environment from the YAML environment file.

Unlike recreate, this command fails if an environment with the declared
name already exists. If the configuration declares a devInstall path,
the local package is installed in editable mode into the new
environment.

Examples:
  reconda create
  reconda create --file environment.yml
  reconda create --manager mamba`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd.Context(), flags, false)
		},
	}

	registerBootstrapFlags(cmd, flags)
	return cmd
}
