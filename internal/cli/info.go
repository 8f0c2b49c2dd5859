// Package cli — info.go implements the "reconda info" command.
//
// info reports which manager binary reconda resolved, its version, and
// its base installation prefix. This surfaces the bootstrap sequence's
// discovery step as a user-facing diagnostic: if info works, recreate's
// preconditions hold.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/reconda/internal/conda"
	"github.com/mmr-tortoise/reconda/internal/model"
)

// infoFlags holds the flag values for the info command.
type infoFlags struct {
	// manager selects the environment-manager binary.
	manager string
}

// NewInfoCommand creates the "info" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInfoCommand() *cobra.Command {
	flags := &infoFlags{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the detected environment manager and its base prefix",
		Long: `Show which environment manager reconda resolved on PATH, its
version, its base installation prefix, and how many environments it
has registered.

Examples:
  reconda info
  reconda info --json
  reconda info --manager conda`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manager, "manager", "auto", "Environment manager: auto, conda, mamba")

	return cmd
}

// runInfo is the main logic function for the info command.
func runInfo(ctx context.Context, flags *infoFlags) error {
	// Step 1: Detect the manager binary.
	kind, err := model.ParseManagerKind(flags.manager)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid --manager value", err)
	}
	mgr, err := conda.Detect(kind)
	if err != nil {
		return err
	}

	// Step 2: Query the manager. A single `info --json` call carries the
	// version, the base prefix, and the environment registry.
	info, err := mgr.QueryInfo(ctx)
	if err != nil {
		return err
	}

	// Step 3: Output.
	if IsJSONOutput() {
		result := map[string]interface{}{
			"manager":    mgr.Kind().String(),
			"binary":     mgr.Binary(),
			"version":    info.CondaVersion,
			"basePrefix": info.RootPrefix,
			"envCount":   len(info.Envs),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Manager:      %s\n", mgr.Kind())
	fmt.Printf("Binary:       %s\n", mgr.Binary())
	fmt.Printf("Version:      %s\n", info.CondaVersion)
	fmt.Printf("Base prefix:  %s\n", info.RootPrefix)
	fmt.Printf("Environments: %d\n", len(info.Envs))
	return nil
}
