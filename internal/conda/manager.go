package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/reconda/internal/model"
)

// BaseEnvName is the name the manager reserves for its base installation.
const BaseEnvName = "base"

// Manager invokes a single environment-manager binary. It is stateless
// beyond the resolved binary path; every method shells out and reads
// the manager's answer fresh, so there is no cache to go stale when
// other processes mutate the environment registry.
type Manager struct {
	// binary is the path to the manager executable as resolved by
	// exec.LookPath at detection time.
	binary string

	// kind records which flavor the binary is (conda or mamba).
	kind model.ManagerKind
}

// Detect resolves the environment-manager binary on PATH.
//
// With ManagerAuto, mamba is preferred over conda: it accepts the same
// subcommands and resolves environments substantially faster. A specific
// kind restricts the search to that binary alone.
//
// Returns a CLIError with ExitManagerNotFound when no candidate is on
// PATH — the manager is a pre-installed prerequisite, not something
// reconda can provide.
func Detect(preferred model.ManagerKind) (*Manager, error) {
	var candidates []model.ManagerKind
	switch preferred {
	case model.ManagerAuto:
		candidates = []model.ManagerKind{model.ManagerMamba, model.ManagerConda}
	case model.ManagerConda, model.ManagerMamba:
		candidates = []model.ManagerKind{preferred}
	default:
		return nil, model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("unknown manager kind %q", preferred),
		)
	}

	for _, kind := range candidates {
		path, err := exec.LookPath(kind.String())
		if err != nil {
			continue
		}
		return &Manager{binary: path, kind: kind}, nil
	}

	names := make([]string, len(candidates))
	for i, kind := range candidates {
		names[i] = kind.String()
	}
	return nil, model.NewCLIError(
		model.ExitManagerNotFound,
		"no environment manager found on PATH (looked for: "+strings.Join(names, ", ")+")",
	)
}

// Binary returns the resolved path of the manager executable.
func (m *Manager) Binary() string {
	return m.binary
}

// Kind returns which manager flavor was detected.
func (m *Manager) Kind() model.ManagerKind {
	return m.kind
}

// BaseDir returns the manager's base installation prefix via
// `info --base`. This is the first step of the bootstrap sequence and
// doubles as a health check: if it fails, the manager installation is
// broken and nothing destructive has happened yet.
func (m *Manager) BaseDir(ctx context.Context) (string, error) {
	out, err := m.runCapture(ctx, "info", "--base")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Info is the subset of `info --json` output reconda consumes.
type Info struct {
	// RootPrefix is the base installation directory.
	RootPrefix string `json:"root_prefix"`

	// CondaVersion is the manager's reported version.
	CondaVersion string `json:"conda_version"`

	// Envs lists the prefixes of all registered environments,
	// including the base prefix itself.
	Envs []string `json:"envs"`

	// ActivePrefix is the currently activated environment prefix,
	// empty when invoked outside an activated shell.
	ActivePrefix string `json:"active_prefix"`
}

// QueryInfo fetches and parses `info --json`.
func (m *Manager) QueryInfo(ctx context.Context) (*Info, error) {
	out, err := m.runCapture(ctx, "info", "--json")
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, model.WrapCLIError(
			model.ExitManagerError,
			"failed to parse "+m.kind.String()+" info output",
			err,
		)
	}
	return &info, nil
}

// ListEnvs returns all environments registered with the manager.
//
// `env list --json` reports prefixes only, so names are reconstructed:
// the base prefix maps to "base", every other prefix to its directory
// basename. Only prefixes directly under the base installation's envs
// directory are `-n` addressable; anything else (created with -p) is
// marked ByPath and carries its basename for display only.
func (m *Manager) ListEnvs(ctx context.Context) ([]model.EnvInfo, error) {
	basePrefix, err := m.BaseDir(ctx)
	if err != nil {
		return nil, err
	}

	out, err := m.runCapture(ctx, "env", "list", "--json")
	if err != nil {
		return nil, err
	}

	var listing struct {
		Envs []string `json:"envs"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		return nil, model.WrapCLIError(
			model.ExitManagerError,
			"failed to parse "+m.kind.String()+" env list output",
			err,
		)
	}

	envs := make([]model.EnvInfo, 0, len(listing.Envs))
	for _, prefix := range listing.Envs {
		name, byPath := envNameForPrefix(prefix, basePrefix)
		envs = append(envs, model.EnvInfo{
			Name:   name,
			Prefix: prefix,
			IsBase: prefix == basePrefix,
			ByPath: byPath,
		})
	}
	return envs, nil
}

// EnvExists reports whether an environment with the given name is
// registered with the manager and addressable via `-n` flags. By-path
// environments are skipped: a matching basename elsewhere on disk would
// send Remove or RunIn to a prefix the manager does not resolve.
func (m *Manager) EnvExists(ctx context.Context, name string) (bool, error) {
	envs, err := m.ListEnvs(ctx)
	if err != nil {
		return false, err
	}
	for _, env := range envs {
		if env.Name == name && !env.ByPath {
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes the named environment without prompting
// (`env remove -n <name> -y`). The -y flag matches the bootstrap
// contract: recreate must never block on a confirmation prompt from
// the underlying tool. Callers that want prompting do it themselves
// before calling Remove.
func (m *Manager) Remove(ctx context.Context, name string) error {
	return m.runStreaming(ctx, "env", "remove", "-n", name, "-y")
}

// CreateFromFile creates an environment from the given YAML environment
// file (`env create -f <file>`). The environment name comes from the
// file itself; there is no -n override here, which keeps the file the
// single authority on naming.
//
// Relative paths inside the file resolve against the process working
// directory, so callers enter the project root (workdir.Scoped) first.
func (m *Manager) CreateFromFile(ctx context.Context, file string) error {
	return m.runStreaming(ctx, "env", "create", "-f", file)
}

// RunIn executes a command inside the named environment via
// `run -n <name> <argv...>`. This is the scriptable equivalent of
// shell activation: the manager sets up PATH and the environment
// variables for the child process without touching the caller's shell.
func (m *Manager) RunIn(ctx context.Context, name string, argv []string) error {
	if len(argv) == 0 {
		return model.NewCLIError(model.ExitGeneralError, "no command to run in environment "+name)
	}
	args := append([]string{"run", "-n", name}, argv...)
	return m.runStreaming(ctx, args...)
}

// PipInstallEditable installs the local package at dir into the named
// environment in editable mode, using the environment's own pip via
// `run -n <name> python -m pip install -e <dir>`.
func (m *Manager) PipInstallEditable(ctx context.Context, name, dir string) error {
	return m.RunIn(ctx, name, []string{"python", "-m", "pip", "install", "-e", dir})
}

// envNameForPrefix maps an environment prefix to its name. The second
// return is true for prefixes outside the base installation's envs
// directory, which are not `-n` addressable.
func envNameForPrefix(prefix, basePrefix string) (string, bool) {
	if prefix == basePrefix {
		return BaseEnvName, false
	}
	if filepath.Dir(prefix) == filepath.Join(basePrefix, "envs") {
		return filepath.Base(prefix), false
	}
	return filepath.Base(prefix), true
}

// runCapture executes a manager subcommand and returns its stdout.
//
// Stdout and stderr are captured separately so stderr can be folded
// into the error message while stdout is returned clean on success.
// Failures wrap into a CLIError with ExitManagerError.
func (m *Manager) runCapture(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, m.binary, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", m.wrapRunError(args, strings.TrimSpace(stderr.String()), err)
	}

	return stdout.String(), nil
}

// runStreaming executes a manager subcommand with its output connected
// to the user's terminal. Solver progress and download bars go straight
// through; on failure the error message names the subcommand, since the
// manager's own diagnostics have already been printed.
func (m *Manager) runStreaming(ctx context.Context, args ...string) error {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, m.binary, args...)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return m.wrapRunError(args, "", err)
	}
	return nil
}

// wrapRunError builds the CLIError for a failed manager invocation.
func (m *Manager) wrapRunError(args []string, stderr string, err error) *model.CLIError {
	message := fmt.Sprintf("%s %s failed", m.kind, strings.Join(args, " "))
	if stderr != "" {
		message = fmt.Sprintf("%s: %s", message, stderr)
	}
	return model.WrapCLIError(model.ExitManagerError, message, err)
}
