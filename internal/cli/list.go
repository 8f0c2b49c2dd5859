// Package cli — list.go implements the "reconda list" command.
//
// The list command shows every environment registered with the manager
// by querying `env list --json`, presented as a text table or a JSON
// array depending on the --json flag. The base installation is marked,
// since it is the one environment the other commands refuse to touch.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/reconda/internal/conda"
	"github.com/mmr-tortoise/reconda/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// manager selects the environment-manager binary.
	manager string
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all environments known to the manager",
		Long: `List all environments registered with the environment manager.

Each environment is shown with its name and prefix; the base
installation is marked with an asterisk.

Examples:
  reconda list
  reconda list --json
  reconda list --manager conda`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manager, "manager", "auto", "Environment manager: auto, conda, mamba")

	return cmd
}

// runList is the main logic function for the list command.
func runList(ctx context.Context, flags *listFlags) error {
	// Step 1: Detect the manager binary.
	kind, err := model.ParseManagerKind(flags.manager)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid --manager value", err)
	}
	mgr, err := conda.Detect(kind)
	if err != nil {
		return err
	}
	log.Debugf("Using %s at %s", mgr.Kind(), mgr.Binary())

	// Step 2: Query the environment registry.
	envs, err := mgr.ListEnvs(ctx)
	if err != nil {
		return err
	}
	log.Debugf("Found %d environments", len(envs))

	// Step 3: Sort for stable output: base first, then alphabetical.
	sortEnvs(envs)

	// Step 4: Output.
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(envs, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(renderEnvTable(envs))
	return nil
}

// sortEnvs orders environments with the base installation first and the
// rest alphabetically by name.
func sortEnvs(envs []model.EnvInfo) {
	sort.Slice(envs, func(i, j int) bool {
		if envs[i].IsBase != envs[j].IsBase {
			return envs[i].IsBase
		}
		return envs[i].Name < envs[j].Name
	})
}

// renderEnvTable formats environments as an aligned two-column table.
// Split out as a pure function for testability.
func renderEnvTable(envs []model.EnvInfo) string {
	if len(envs) == 0 {
		return "No environments found.\n"
	}

	// Compute the name column width, leaving room for the base marker.
	nameWidth := len("NAME")
	for _, env := range envs {
		if w := len(displayName(env)); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %s\n", nameWidth, "NAME", "PREFIX")
	for _, env := range envs {
		fmt.Fprintf(&b, "%-*s  %s\n", nameWidth, displayName(env), env.Prefix)
	}
	return b.String()
}

// displayName marks the base environment with an asterisk and flags
// environments that live outside the envs directory, since their names
// cannot be passed to remove or run.
func displayName(env model.EnvInfo) string {
	if env.IsBase {
		return env.Name + " *"
	}
	if env.ByPath {
		return env.Name + " (by path)"
	}
	return env.Name
}
