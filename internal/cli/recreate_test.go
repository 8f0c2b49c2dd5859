// Package cli — recreate_test.go contains unit tests for the pure
// helpers behind the recreate/create orchestration: project resolution,
// flag layering, and the name cross-check.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/reconda/internal/model"
	"github.com/mmr-tortoise/reconda/internal/project"
)

// chdir moves the test into dir and registers a cleanup that moves back.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// TestCheckEnvName verifies the mismatch detection between the
// configured name and the name declared in the environment file.
func TestCheckEnvName(t *testing.T) {
	// Empty configured name means "trust the file".
	assert.NoError(t, checkEnvName("", "robo-lab"))

	// Matching names pass.
	assert.NoError(t, checkEnvName("robo-lab", "robo-lab"))

	// A mismatch is a dedicated, script-detectable failure.
	err := checkEnvName("robo-lab", "other-env")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitNameMismatch, cliErr.Code)
	assert.Contains(t, cliErr.Message, "robo-lab")
	assert.Contains(t, cliErr.Message, "other-env")
}

// TestActivationHint verifies the hint uses the detected manager's name.
func TestActivationHint(t *testing.T) {
	assert.Equal(t, "conda activate lab", activationHint(model.ManagerConda, "lab"))
	assert.Equal(t, "mamba activate lab", activationHint(model.ManagerMamba, "lab"))
}

// TestResolveProjectExplicitConfig verifies that --config short-circuits
// the upward search.
func TestResolveProjectExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, project.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`{"envName": "lab"}`), 0o644))

	// Run from an unrelated directory; only the flag should matter.
	chdir(t, t.TempDir())

	proj, err := resolveProject(&bootstrapFlags{config: configPath})
	require.NoError(t, err)
	assert.Equal(t, dir, proj.Root)
	assert.Equal(t, "lab", proj.Config.EnvName)
}

// TestResolveProjectUpwardSearch verifies discovery from a nested
// directory inside the project.
func TestResolveProjectUpwardSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, project.ConfigFileName), []byte(`{}`), 0o644))
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	proj, err := resolveProject(&bootstrapFlags{})
	require.NoError(t, err)

	// Compare with symlinks resolved; on macOS t.TempDir() lives under
	// a /var → /private/var symlink.
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(proj.Root)
	assert.Equal(t, wantRoot, gotRoot)
}

// TestResolveProjectFromEnvFile verifies the configless fallback: an
// explicit --file synthesizes a project rooted at the file's directory.
func TestResolveProjectFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "lab.yml")
	require.NoError(t, os.WriteFile(envPath, []byte("name: lab\n"), 0o644))

	// No config anywhere up the tree from this temp dir.
	chdir(t, t.TempDir())

	proj, err := resolveProject(&bootstrapFlags{file: envPath})
	require.NoError(t, err)
	assert.Equal(t, dir, proj.Root)
	assert.Equal(t, envPath, proj.EnvFilePath())
}

// TestResolveProjectNotFound verifies the error when neither a config
// nor an explicit file is available.
func TestResolveProjectNotFound(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := resolveProject(&bootstrapFlags{})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestApplyFlagOverrides verifies flag layering over loaded config.
func TestApplyFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, project.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath,
		[]byte(`{"envName": "lab", "manager": "conda", "devInstall": "."}`), 0o644))

	proj, err := project.Load(configPath)
	require.NoError(t, err)

	flags := &bootstrapFlags{
		name:    "other",
		manager: "mamba",
	}
	require.NoError(t, applyFlagOverrides(proj, flags))

	assert.Equal(t, "other", proj.Config.EnvName)
	assert.Equal(t, model.ManagerMamba, proj.Manager)
	// devInstall untouched when the flag is absent.
	assert.Equal(t, dir, proj.DevInstallPath())
}

// TestApplyFlagOverridesSkipDevInstall verifies that --skip-dev-install
// clears a configured editable install.
func TestApplyFlagOverridesSkipDevInstall(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, project.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`{"devInstall": "."}`), 0o644))

	proj, err := project.Load(configPath)
	require.NoError(t, err)
	require.NotEmpty(t, proj.DevInstallPath())

	require.NoError(t, applyFlagOverrides(proj, &bootstrapFlags{skipDevInstall: true}))
	assert.Empty(t, proj.DevInstallPath())
}

// TestApplyFlagOverridesInvalidValues verifies rejection of bad flag values.
func TestApplyFlagOverridesInvalidValues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, project.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`{}`), 0o644))

	proj, err := project.Load(configPath)
	require.NoError(t, err)

	assert.Error(t, applyFlagOverrides(proj, &bootstrapFlags{manager: "virtualenv"}))
	assert.Error(t, applyFlagOverrides(proj, &bootstrapFlags{name: "bad name"}))
}
