// Package cli — run.go implements the "reconda run" command.
//
// run executes a command inside a named environment via the manager's
// `run -n` subcommand. This is the scriptable replacement for shell
// activation: a child process cannot activate its parent shell, but it
// can run arbitrary commands with the environment's PATH and variables
// in effect — which is what automation actually needs.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/reconda/internal/conda"
	"github.com/mmr-tortoise/reconda/internal/model"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	// manager selects the environment-manager binary.
	manager string
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <name> <command> [args...]",
		Short: "Run a command inside an environment",
		Long: `Run a command inside the named environment, with the environment's
PATH and variables in effect. The command's output streams through and
its failure is reported as a manager error.

Examples:
  reconda run robo-lab python train.py
  reconda run robo-lab pytest -x tests/`,

		// At least the environment name and one command word.
		Args: cobra.MinimumNArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args[0], args[1:], flags)
		},
	}

	cmd.Flags().StringVar(&flags.manager, "manager", "auto", "Environment manager: auto, conda, mamba")

	// Stop flag parsing at the first positional argument so flags meant
	// for the wrapped command (e.g. "pytest -x") pass through untouched.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// runRun is the main logic function for the run command.
func runRun(ctx context.Context, envName string, argv []string, flags *runFlags) error {
	// Step 1: Validate the target.
	if err := model.ValidateEnvName(envName); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
	}

	// Step 2: Detect the manager binary.
	kind, err := model.ParseManagerKind(flags.manager)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid --manager value", err)
	}
	mgr, err := conda.Detect(kind)
	if err != nil {
		return err
	}

	// Step 3: Verify the environment exists, so a typo produces a clear
	// "environment not found" instead of the manager's activation noise.
	exists, err := mgr.EnvExists(ctx, envName)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("environment %q does not exist", envName))
	}

	// Step 4: Run the command with output streaming through.
	log.Debugf("Running %v in environment %q", argv, envName)
	return mgr.RunIn(ctx, envName, argv)
}
