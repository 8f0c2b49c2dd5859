// Package cli — recreate.go implements the "reconda recreate" command.
//
// The recreate command is the primary user-facing operation. It rebuilds
// the project's environment from scratch, which is the only reliable way
// to guarantee the environment matches the YAML file exactly: in-place
// updates leave behind packages that were removed from the file.
//
// Orchestration steps:
//  1. Resolve the project root (config flag, upward search, or env file)
//  2. Load configuration and the YAML environment file
//  3. Cross-check the configured name against the file's declared name
//  4. Detect the environment-manager binary
//  5. Query the manager's base prefix (health check before anything destructive)
//  6. Enter the project root for the duration of the operation
//  7. Remove the existing environment (forced, tolerant of absence)
//  8. Create the environment from the YAML file
//  9. Optionally install the local package in editable mode
//  10. Output results (text or JSON)
//
// The create command (create.go) shares this orchestration minus the
// destructive step 7; runBootstrap implements both.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/reconda/internal/conda"
	"github.com/mmr-tortoise/reconda/internal/envfile"
	"github.com/mmr-tortoise/reconda/internal/model"
	"github.com/mmr-tortoise/reconda/internal/project"
	"github.com/mmr-tortoise/reconda/internal/workdir"
)

// bootstrapFlags holds the flag values shared by the recreate and
// create commands. These are bound to cobra flags in the command
// constructors.
type bootstrapFlags struct {
	config         string // --config: explicit reconda.jsonc path
	file           string // --file: explicit environment file path
	name           string // --name: expected environment name (cross-check)
	manager        string // --manager: conda, mamba, or auto
	devInstall     string // --dev-install: editable install path
	skipDevInstall bool   // --skip-dev-install: disable the editable install step
}

// NewRecreateCommand creates the "recreate" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRecreateCommand() *cobra.Command {
	flags := &bootstrapFlags{}

	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Remove and recreate the project environment from its YAML file",
		Long: `Remove the project's environment and recreate it from the YAML
environment file, so the result matches the file exactly.

The project root is located by searching for reconda.jsonc upward from
the current directory. The removal is forced and never prompts; a
missing environment is not an error. If the configuration declares a
devInstall path, the local package is installed in editable mode into
the fresh environment.

Examples:
  reconda recreate
  reconda recreate --file environment.yml
  reconda recreate --manager conda --skip-dev-install
  reconda recreate --name robo-lab --json`,

		// No positional arguments: the environment name comes from the
		// YAML file, keeping the file the single authority on naming.
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd.Context(), flags, true)
		},
	}

	registerBootstrapFlags(cmd, flags)
	return cmd
}

// registerBootstrapFlags binds the flags shared by recreate and create.
func registerBootstrapFlags(cmd *cobra.Command, flags *bootstrapFlags) {
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to reconda.jsonc (default: search upward from the current directory)")
	cmd.Flags().StringVar(&flags.file, "file", "", "Environment file path (default: from config, or environment.yml)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Expected environment name; must match the name declared in the environment file")
	cmd.Flags().StringVar(&flags.manager, "manager", "", "Environment manager: auto, conda, mamba (default: from config, or auto)")
	cmd.Flags().StringVar(&flags.devInstall, "dev-install", "", "Local package path to install in editable mode after creation")
	cmd.Flags().BoolVar(&flags.skipDevInstall, "skip-dev-install", false, "Skip the editable install even if configured")
}

// bootstrapResult collects everything the output printers need.
type bootstrapResult struct {
	Name       string
	EnvFile    string
	Manager    *conda.Manager
	BasePrefix string
	Removed    bool
	DevInstall string
	Packages   int
}

// runBootstrap is the orchestration shared by recreate and create.
// When recreate is true, an existing environment is removed first;
// when false, an existing environment is an error.
func runBootstrap(ctx context.Context, flags *bootstrapFlags, recreate bool) error {
	// Step 1: Resolve the project (root directory + configuration).
	proj, err := resolveProject(flags)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(proj, flags); err != nil {
		return err
	}
	log.Debugf("Project root: %s", proj.Root)

	// Step 2: Load the YAML environment file. A missing or malformed
	// file aborts here, before anything destructive happens.
	ef, err := envfile.Load(proj.EnvFilePath())
	if err != nil {
		return err
	}
	log.Debugf("Environment file: %s (%d packages)", ef.Path, ef.PackageCount())

	// Step 3: Cross-check the configured name against the declared one.
	// Without this, a configured name that drifts from the file's name
	// silently produces a second environment under the file's name.
	if err := checkEnvName(proj.Config.EnvName, ef.Name); err != nil {
		return err
	}
	envName := ef.Name
	if envName == conda.BaseEnvName {
		return model.NewCLIError(model.ExitGeneralError,
			"refusing to bootstrap the reserved environment name \"base\"")
	}

	// Step 4: Detect the environment-manager binary.
	mgr, err := conda.Detect(proj.Manager)
	if err != nil {
		return err
	}
	log.Debugf("Using %s at %s", mgr.Kind(), mgr.Binary())

	// Step 5: Query the base prefix. Besides feeding the result output,
	// this is a health check: a broken installation fails here with
	// nothing removed yet.
	basePrefix, err := mgr.BaseDir(ctx)
	if err != nil {
		return err
	}
	log.Debugf("Manager base prefix: %s", basePrefix)

	// Step 6: Enter the project root for the duration of the operation.
	// Relative paths inside the YAML file (pip requirements, "-e .")
	// resolve against the root, and the previous working directory is
	// restored on every exit path.
	restore, err := workdir.Scoped(proj.Root)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to enter project root", err)
	}
	defer func() {
		if rerr := restore(); rerr != nil {
			log.Warnf("%v", rerr)
		}
	}()

	// Step 7: Handle a pre-existing environment.
	exists, err := mgr.EnvExists(ctx, envName)
	if err != nil {
		return err
	}

	removed := false
	if exists {
		if !recreate {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("environment %q already exists (use \"reconda recreate\" to rebuild it)", envName))
		}
		log.Debugf("Removing existing environment %q...", envName)
		if err := mgr.Remove(ctx, envName); err != nil {
			return err
		}
		removed = true
	} else {
		log.Debugf("Environment %q not present, skipping removal", envName)
	}

	// Step 8: Create the environment from the YAML file. If this fails
	// after a successful removal, the environment is left absent — there
	// is no rollback, and the error says exactly that.
	log.Debugf("Creating environment %q from %s...", envName, ef.Path)
	if err := mgr.CreateFromFile(ctx, ef.Path); err != nil {
		if removed {
			return model.WrapCLIError(model.ExitManagerError,
				fmt.Sprintf("environment creation failed after %q was removed; the environment is now absent", envName),
				err)
		}
		return err
	}

	// Step 9: Editable install of the local package, if configured.
	devInstall := proj.DevInstallPath()
	if devInstall != "" {
		log.Debugf("Installing %s in editable mode into %q...", devInstall, envName)
		if err := mgr.PipInstallEditable(ctx, envName, devInstall); err != nil {
			return err
		}
	}

	// Step 10: Output results.
	printBootstrapResult(&bootstrapResult{
		Name:       envName,
		EnvFile:    ef.Path,
		Manager:    mgr,
		BasePrefix: basePrefix,
		Removed:    removed,
		DevInstall: devInstall,
		Packages:   ef.PackageCount(),
	}, recreate)
	return nil
}

// resolveProject determines the project root and configuration.
// Priority: explicit --config path, then upward search for
// reconda.jsonc, then a project synthesized around an explicit --file.
func resolveProject(flags *bootstrapFlags) (*project.Project, error) {
	if flags.config != "" {
		return project.Load(flags.config)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	configPath, findErr := project.Find(cwd)
	if findErr != nil {
		// No config anywhere up the tree. An explicit environment file
		// is enough to work with; otherwise surface the search failure.
		if flags.file != "" {
			return project.FromEnvFile(flags.file)
		}
		return nil, findErr
	}

	return project.Load(configPath)
}

// applyFlagOverrides layers command-line flags over the loaded
// configuration. Flags always win; paths given on the command line are
// resolved against the caller's working directory, not the project root.
func applyFlagOverrides(proj *project.Project, flags *bootstrapFlags) error {
	if flags.file != "" {
		abs, err := filepath.Abs(flags.file)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to resolve --file path", err)
		}
		proj.Config.EnvFile = abs
	}

	if flags.name != "" {
		if err := model.ValidateEnvName(flags.name); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --name value", err)
		}
		proj.Config.EnvName = flags.name
	}

	if flags.manager != "" {
		kind, err := model.ParseManagerKind(flags.manager)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --manager value", err)
		}
		proj.Manager = kind
	}

	if flags.devInstall != "" {
		abs, err := filepath.Abs(flags.devInstall)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to resolve --dev-install path", err)
		}
		proj.Config.DevInstall = abs
	}
	if flags.skipDevInstall {
		proj.Config.DevInstall = ""
	}

	return nil
}

// checkEnvName verifies that the configured environment name (from
// reconda.jsonc or --name) matches the name declared inside the YAML
// environment file. An empty configured name means "trust the file".
func checkEnvName(configured, declared string) error {
	if configured == "" || configured == declared {
		return nil
	}
	return model.NewCLIError(model.ExitNameMismatch,
		fmt.Sprintf("configured environment name %q does not match the name %q declared in the environment file",
			configured, declared))
}

// activationHint renders the shell command a user runs to activate the
// environment. reconda cannot activate the caller's shell itself — a
// child process can't mutate its parent — so it prints the command and
// offers "reconda run" for scripted use.
func activationHint(kind model.ManagerKind, envName string) string {
	return fmt.Sprintf("%s activate %s", kind, envName)
}

// printBootstrapResult outputs the recreate/create results in text or
// JSON format.
func printBootstrapResult(res *bootstrapResult, recreate bool) {
	if IsJSONOutput() {
		printBootstrapResultJSON(res)
	} else {
		printBootstrapResultText(res, recreate)
	}
}

// printBootstrapResultJSON outputs the result as structured JSON.
func printBootstrapResultJSON(res *bootstrapResult) {
	result := map[string]interface{}{
		"name":       res.Name,
		"envFile":    res.EnvFile,
		"manager":    res.Manager.Kind().String(),
		"basePrefix": res.BasePrefix,
		"removed":    res.Removed,
		"packages":   res.Packages,
		"activate":   activationHint(res.Manager.Kind(), res.Name),
	}
	if res.DevInstall != "" {
		result["devInstall"] = res.DevInstall
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printBootstrapResultText outputs the result as human-readable text.
func printBootstrapResultText(res *bootstrapResult, recreate bool) {
	verb := "Created"
	if recreate && res.Removed {
		verb = "Recreated"
	}

	fmt.Printf("%s environment %q\n", verb, res.Name)
	fmt.Printf("  File:     %s\n", res.EnvFile)
	fmt.Printf("  Manager:  %s (%s)\n", res.Manager.Kind(), res.Manager.Binary())
	fmt.Printf("  Packages: %d declared\n", res.Packages)
	if res.DevInstall != "" {
		fmt.Printf("  Editable: %s\n", res.DevInstall)
	}
	fmt.Println()
	fmt.Printf("To activate, run: %s\n", activationHint(res.Manager.Kind(), res.Name))
}
