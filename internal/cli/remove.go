// Package cli — remove.go implements the "reconda remove" command.
//
// remove deletes a named environment from the manager's registry. Unlike
// the removal step inside recreate (which is forced and tolerant of
// absence, because the point is the rebuild), standalone removal is
// strict and interactive: a missing environment is an error, and the
// command prompts for confirmation unless --force is specified.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/reconda/internal/conda"
	"github.com/mmr-tortoise/reconda/internal/model"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool

	// manager selects the environment-manager binary.
	manager string
}

// NewRemoveCommand creates the "remove" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an environment by name",
		Long: `Remove an environment from the manager's registry.

Unless --force is specified, the command prompts for confirmation.
The base environment can never be removed.

Examples:
  reconda remove robo-lab
  reconda remove --force robo-lab`,

		// Exactly one positional argument (environment name) is required.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().StringVar(&flags.manager, "manager", "auto", "Environment manager: auto, conda, mamba")

	return cmd
}

// runRemove is the main logic function for the remove command.
func runRemove(ctx context.Context, envName string, flags *removeFlags) error {
	// Step 1: Validate the target name. The base environment is the
	// manager installation itself; removing it is never what anyone wants.
	if err := model.ValidateEnvName(envName); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
	}
	if envName == conda.BaseEnvName {
		return model.NewCLIError(model.ExitGeneralError, "refusing to remove the base environment")
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
	log.Debugf("Using %s at %s", mgr.Kind(), mgr.Binary())

	// Step 3: Verify the environment exists. Standalone remove is strict:
	// asking to remove something that isn't there is reported, not ignored.
	exists, err := mgr.EnvExists(ctx, envName)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("environment %q does not exist", envName))
	}

	// Step 4: Prompt for confirmation unless --force is specified.
	if !flags.force {
		confirmed, err := promptConfirmation(envName)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Step 5: Remove the environment.
	log.Debugf("Removing environment %q...", envName)
	if err := mgr.Remove(ctx, envName); err != nil {
		return err
	}

	// Step 6: Output the result.
	printRemoveResult(envName)
	return nil
}

// promptConfirmation asks the user to confirm the remove operation.
// It reads a single line from stdin and checks for "y" or "yes".
// Returns true if the user confirmed, false otherwise.
func promptConfirmation(envName string) (bool, error) {
	fmt.Printf("About to remove environment %q and all of its packages.\n", envName)
	fmt.Print("Continue? [y/N] ")

	// Read a line from stdin. bufio.Scanner handles different line endings
	// across platforms (LF on Unix, CRLF on Windows).
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// If stdin is closed or an error occurred, treat it as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}

	return false, nil
}

// printRemoveResult outputs the remove command result in text or JSON format.
func printRemoveResult(envName string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":   envName,
			"action": "removed",
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Removed environment %q\n", envName)
}
