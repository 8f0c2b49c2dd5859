package conda

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/reconda/internal/model"
)

// stubScript is a fake manager binary that answers the query subcommands
// with canned output and records every invocation's arguments into the
// file named by RECONDA_STUB_LOG (when set). This mirrors how the git
// wrapper would be tested if git could not be assumed on CI: the wrapper
// logic is exercised for real through exec, PATH lookup included.
const stubScript = `#!/bin/sh
if [ -n "$RECONDA_STUB_LOG" ]; then
  echo "$@" >> "$RECONDA_STUB_LOG"
fi
if [ "$1" = "info" ] && [ "$2" = "--base" ]; then
  echo "/opt/stub/conda"
  exit 0
fi
if [ "$1" = "info" ] && [ "$2" = "--json" ]; then
  echo '{"root_prefix":"/opt/stub/conda","conda_version":"24.1.2","envs":["/opt/stub/conda","/opt/stub/conda/envs/robo-lab","/home/me/prefixes/scratch"],"active_prefix":""}'
  exit 0
fi
if [ "$1" = "env" ] && [ "$2" = "list" ]; then
  echo '{"envs":["/opt/stub/conda","/opt/stub/conda/envs/robo-lab","/home/me/prefixes/scratch"]}'
  exit 0
fi
exit 0
`

// failingScript simulates a broken manager installation: every query
// fails with a diagnostic on stderr.
const failingScript = `#!/bin/sh
echo "CondaError: environment registry is corrupted" >&2
exit 3
`

// writeStub installs a fake manager binary under the given name in dir.
func writeStub(t *testing.T, dir, name, script string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub manager binaries require a POSIX shell")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

// stubPath points PATH at a directory containing only the stubs, so
// Detect cannot accidentally find a real conda installation.
func stubPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir)
}

// TestDetectPrefersMamba verifies the auto-detection order: when both
// binaries are present, mamba wins.
func TestDetectPrefersMamba(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "mamba", stubScript)
	writeStub(t, dir, "conda", stubScript)
	stubPath(t, dir)

	m, err := Detect(model.ManagerAuto)
	require.NoError(t, err)
	assert.Equal(t, model.ManagerMamba, m.Kind())
	assert.Equal(t, filepath.Join(dir, "mamba"), m.Binary())
}

// TestDetectFallsBackToConda verifies auto fallback when mamba is absent.
func TestDetectFallsBackToConda(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "conda", stubScript)
	stubPath(t, dir)

	m, err := Detect(model.ManagerAuto)
	require.NoError(t, err)
	assert.Equal(t, model.ManagerConda, m.Kind())
}

// TestDetectSpecificKindIgnoresOthers verifies that forcing a kind does
// not fall back to whatever else is on PATH.
func TestDetectSpecificKindIgnoresOthers(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "conda", stubScript)
	stubPath(t, dir)

	_, err := Detect(model.ManagerMamba)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitManagerNotFound, cliErr.Code)
	assert.Contains(t, cliErr.Message, "mamba")
}

// TestDetectNotFound verifies the exit code when no manager exists at all.
func TestDetectNotFound(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub manager binaries require a POSIX shell")
	}
	stubPath(t, t.TempDir())

	_, err := Detect(model.ManagerAuto)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitManagerNotFound, cliErr.Code)
}

// detectStub is a helper that installs the standard stub as mamba and
// returns a detected Manager.
func detectStub(t *testing.T) *Manager {
	t.Helper()

	dir := t.TempDir()
	writeStub(t, dir, "mamba", stubScript)
	stubPath(t, dir)

	m, err := Detect(model.ManagerAuto)
	require.NoError(t, err)
	return m
}

// TestBaseDir verifies `info --base` parsing, including newline trimming.
func TestBaseDir(t *testing.T) {
	m := detectStub(t)

	base, err := m.BaseDir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/stub/conda", base)
}

// TestQueryInfo verifies `info --json` parsing.
func TestQueryInfo(t *testing.T) {
	m := detectStub(t)

	info, err := m.QueryInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/stub/conda", info.RootPrefix)
	assert.Equal(t, "24.1.2", info.CondaVersion)
	assert.Len(t, info.Envs, 3)
	assert.Empty(t, info.ActivePrefix)
}

// TestListEnvs verifies that prefixes are mapped to names, with the
// base prefix recognized as "base" and prefixes outside the envs
// directory marked as by-path.
func TestListEnvs(t *testing.T) {
	m := detectStub(t)

	envs, err := m.ListEnvs(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 3)

	assert.Equal(t, "base", envs[0].Name)
	assert.True(t, envs[0].IsBase)
	assert.False(t, envs[0].ByPath)
	assert.Equal(t, "/opt/stub/conda", envs[0].Prefix)

	assert.Equal(t, "robo-lab", envs[1].Name)
	assert.False(t, envs[1].IsBase)
	assert.False(t, envs[1].ByPath)
	assert.Equal(t, "/opt/stub/conda/envs/robo-lab", envs[1].Prefix)

	assert.Equal(t, "scratch", envs[2].Name)
	assert.False(t, envs[2].IsBase)
	assert.True(t, envs[2].ByPath)
	assert.Equal(t, "/home/me/prefixes/scratch", envs[2].Prefix)
}

// TestEnvExists verifies lookup by name against the listing. By-path
// environments never match: their basename is not a `-n` name, and a
// true answer here would aim Remove at a prefix the manager does not
// resolve.
func TestEnvExists(t *testing.T) {
	m := detectStub(t)
	ctx := context.Background()

	exists, err := m.EnvExists(ctx, "robo-lab")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = m.EnvExists(ctx, "no-such-env")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = m.EnvExists(ctx, "scratch")
	require.NoError(t, err)
	assert.False(t, exists)
}

// readStubLog returns the recorded invocations, one line per call.
func readStubLog(t *testing.T, logPath string) []string {
	t.Helper()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// TestRemoveArgs verifies the exact argument sequence of the forced,
// prompt-free removal.
func TestRemoveArgs(t *testing.T) {
	m := detectStub(t)
	logPath := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv("RECONDA_STUB_LOG", logPath)

	require.NoError(t, m.Remove(context.Background(), "robo-lab"))

	calls := readStubLog(t, logPath)
	require.Len(t, calls, 1)
	assert.Equal(t, "env remove -n robo-lab -y", calls[0])
}

// TestCreateFromFileArgs verifies the creation argument sequence.
func TestCreateFromFileArgs(t *testing.T) {
	m := detectStub(t)
	logPath := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv("RECONDA_STUB_LOG", logPath)

	require.NoError(t, m.CreateFromFile(context.Background(), "environment.yml"))

	calls := readStubLog(t, logPath)
	require.Len(t, calls, 1)
	assert.Equal(t, "env create -f environment.yml", calls[0])
}

// TestPipInstallEditableArgs verifies that the editable install runs
// through the environment's own interpreter.
func TestPipInstallEditableArgs(t *testing.T) {
	m := detectStub(t)
	logPath := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv("RECONDA_STUB_LOG", logPath)

	require.NoError(t, m.PipInstallEditable(context.Background(), "robo-lab", "/work/pkg"))

	calls := readStubLog(t, logPath)
	require.Len(t, calls, 1)
	assert.Equal(t, "run -n robo-lab python -m pip install -e /work/pkg", calls[0])
}

// TestRunInNoCommand verifies that an empty command list is rejected
// before any process is spawned.
func TestRunInNoCommand(t *testing.T) {
	m := detectStub(t)

	err := m.RunIn(context.Background(), "robo-lab", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command")
}

// TestQueryFailureIncludesStderr verifies that a failing query surfaces
// the manager's stderr in the CLIError with ExitManagerError.
func TestQueryFailureIncludesStderr(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "mamba", failingScript)
	stubPath(t, dir)

	m, err := Detect(model.ManagerAuto)
	require.NoError(t, err)

	_, err = m.BaseDir(context.Background())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitManagerError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "registry is corrupted")
	assert.Contains(t, cliErr.Message, "info --base")
}

// TestEnvNameForPrefix pins the prefix-to-name mapping rules.
func TestEnvNameForPrefix(t *testing.T) {
	name, byPath := envNameForPrefix("/opt/conda", "/opt/conda")
	assert.Equal(t, "base", name)
	assert.False(t, byPath)

	name, byPath = envNameForPrefix("/opt/conda/envs/lab", "/opt/conda")
	assert.Equal(t, "lab", name)
	assert.False(t, byPath)

	name, byPath = envNameForPrefix("/home/me/prefixes/custom", "/opt/conda")
	assert.Equal(t, "custom", name)
	assert.True(t, byPath)
}
