// Package project handles locating and parsing the reconda project
// configuration file (reconda.jsonc).
//
// The configuration format is JSONC (JSON with Comments), so this package
// uses github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library. The directory containing the config file
// is the project root: every relative path in the configuration (the
// environment file, the editable-install target) resolves against it, and
// manager invocations run from it. Root discovery walks upward from the
// caller's working directory, so the resolved root is identical no matter
// where inside the project reconda is invoked.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/reconda/internal/model"
)

// ConfigFileName is the project configuration file reconda searches for.
const ConfigFileName = "reconda.jsonc"

// DefaultEnvFile is used when the configuration does not name one.
const DefaultEnvFile = "environment.yml"

// Config is the raw JSON structure of a reconda.jsonc file. Unknown
// fields are silently ignored during parsing.
type Config struct {
	// EnvName optionally pins the expected environment name. When set,
	// it must match the name declared inside the environment file —
	// a mismatch aborts the run instead of silently producing a second
	// environment under a different name.
	EnvName string `json:"envName,omitempty"`

	// EnvFile is the YAML environment file path, relative to the
	// project root. Defaults to "environment.yml".
	EnvFile string `json:"envFile,omitempty"`

	// Manager selects the environment-manager binary:
	// "auto" (default), "conda", or "mamba".
	Manager string `json:"manager,omitempty"`

	// DevInstall is a path, relative to the project root, of a local
	// package to install in editable mode (pip install -e) into the
	// freshly created environment. Empty disables the step.
	DevInstall string `json:"devInstall,omitempty"`
}

// Project is a fully resolved project: an absolute root directory plus
// validated configuration.
type Project struct {
	// Root is the absolute project root directory (the directory
	// containing the configuration file).
	Root string

	// ConfigPath is the absolute path of the loaded configuration file.
	// Empty for synthesized projects (see FromEnvFile).
	ConfigPath string

	// Config holds the parsed configuration with defaults applied.
	Config Config

	// Manager is the parsed, validated manager kind.
	Manager model.ManagerKind
}

// Find walks upward from startDir looking for a reconda.jsonc file.
// It returns the absolute path of the first one found.
//
// The upward walk gives the same answer from any directory inside the
// project, which is what makes bootstrap results independent of the
// caller's working directory.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve directory %q", startDir)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a config.
			break
		}
		dir = parent
	}

	return "", model.NewCLIError(
		model.ExitGeneralError,
		ConfigFileName+" not found in "+startDir+" or any parent directory",
	)
}

// Load reads and parses the configuration file at configPath and returns
// the resolved Project. The project root is the directory containing the
// file.
func Load(configPath string) (*Project, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve config path %q", configPath)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitGeneralError,
				"config file not found: "+abs,
				err,
			)
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", abs)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Project config files are hand-edited, so comments are
	// expected and supported.
	cleanJSON := jsonc.ToJSON(data)

	var cfg Config
	if err := json.Unmarshal(cleanJSON, &cfg); err != nil {
		return nil, model.WrapCLIError(
			model.ExitGeneralError,
			"malformed config file "+abs,
			err,
		)
	}

	p := &Project{
		Root:       filepath.Dir(abs),
		ConfigPath: abs,
		Config:     cfg,
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromEnvFile synthesizes a Project for configless invocations where the
// user passed an environment file explicitly. The file's directory acts
// as the project root, mirroring the convention that the environment
// file sits next to the configuration it belongs to.
func FromEnvFile(envFilePath string) (*Project, error) {
	abs, err := filepath.Abs(envFilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve environment file path %q", envFilePath)
	}

	p := &Project{
		Root: filepath.Dir(abs),
		Config: Config{
			EnvFile: filepath.Base(abs),
		},
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// normalize applies defaults and validates configuration values.
func (p *Project) normalize() error {
	if p.Config.EnvFile == "" {
		p.Config.EnvFile = DefaultEnvFile
	}
	if p.Config.Manager == "" {
		p.Config.Manager = string(model.ManagerAuto)
	}

	kind, err := model.ParseManagerKind(p.Config.Manager)
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			"invalid manager in "+p.describeSource(),
			err,
		)
	}
	p.Manager = kind

	if p.Config.EnvName != "" {
		if err := model.ValidateEnvName(p.Config.EnvName); err != nil {
			return model.WrapCLIError(
				model.ExitGeneralError,
				"invalid envName in "+p.describeSource(),
				err,
			)
		}
	}

	return nil
}

// describeSource names where the configuration came from, for error
// messages on synthesized projects.
func (p *Project) describeSource() string {
	if p.ConfigPath != "" {
		return p.ConfigPath
	}
	return "project settings"
}

// EnvFilePath returns the absolute path of the environment file.
func (p *Project) EnvFilePath() string {
	if filepath.IsAbs(p.Config.EnvFile) {
		return p.Config.EnvFile
	}
	return filepath.Join(p.Root, p.Config.EnvFile)
}

// DevInstallPath returns the absolute editable-install target path, or
// an empty string when the step is disabled.
func (p *Project) DevInstallPath() string {
	if p.Config.DevInstall == "" {
		return ""
	}
	if filepath.IsAbs(p.Config.DevInstall) {
		return p.Config.DevInstall
	}
	return filepath.Join(p.Root, p.Config.DevInstall)
}
