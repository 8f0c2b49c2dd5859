// Package envfile parses the YAML environment specification file
// consumed by conda/mamba (conventionally environment.yml).
//
// reconda never resolves dependencies itself — that is the external
// manager's job. This package only extracts the fields reconda needs:
// the declared environment name (to validate against the project
// configuration) and the dependency lists (for result summaries).
// Unknown fields are deliberately ignored so that manager-specific
// extensions (variables, prefix, etc.) pass through untouched.
package envfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/reconda/internal/model"
)

// File is the parsed representation of a YAML environment file.
type File struct {
	// Name is the environment name declared in the file. The manager
	// registers the environment under this name, so it is the single
	// authoritative name for the whole bootstrap sequence.
	Name string `yaml:"name"`

	// Channels lists the package channels in priority order.
	Channels []string `yaml:"channels"`

	// Dependencies holds the declared packages. Entries are either
	// conda package specs or a nested pip requirement list.
	Dependencies []Dependency `yaml:"dependencies"`

	// Path is the absolute path the file was loaded from.
	// Not part of the YAML document.
	Path string `yaml:"-"`
}

// Dependency is one entry of the dependencies list. The conda format
// allows two shapes in the same list:
//
//	dependencies:
//	  - python=3.10          # plain spec
//	  - pip:                 # nested pip requirements
//	      - torch==2.1.0
//	      - -e .
//
// Exactly one of Spec and Pip is populated per entry.
type Dependency struct {
	// Spec is a conda package spec such as "numpy>=1.24".
	Spec string

	// Pip holds pip requirement strings from a {pip: [...]} mapping.
	Pip []string
}

// UnmarshalYAML decodes either form of a dependency entry. yaml.v3
// invokes this per list element with the raw node, which lets us branch
// on the node kind instead of decoding into interface{} and type-switching.
func (d *Dependency) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		d.Spec = value.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			Pip []string `yaml:"pip"`
		}
		if err := value.Decode(&m); err != nil {
			return errors.Wrapf(err, "invalid dependency mapping at line %d", value.Line)
		}
		if m.Pip == nil {
			return errors.Errorf("unsupported dependency mapping at line %d (only \"pip:\" is recognized)", value.Line)
		}
		d.Pip = m.Pip
		return nil
	default:
		return errors.Errorf("unsupported dependency entry at line %d", value.Line)
	}
}

// Load reads and parses the environment file at path.
//
// Returns a CLIError with ExitEnvFileError when the file is missing,
// malformed, or declares no name. The error carries enough context for
// the CLI layer to print without further wrapping.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve environment file path %q", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitEnvFileError,
				"environment file not found: "+abs,
				err,
			)
		}
		return nil, model.WrapCLIError(
			model.ExitEnvFileError,
			"failed to read environment file "+abs,
			err,
		)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, model.WrapCLIError(
			model.ExitEnvFileError,
			"malformed environment file "+abs,
			err,
		)
	}

	// The name is mandatory: `conda env create -f` registers the
	// environment under it, and every later step (remove, run, editable
	// install) addresses the environment by name.
	if f.Name == "" {
		return nil, model.NewCLIError(
			model.ExitEnvFileError,
			"environment file "+abs+" does not declare a name",
		)
	}
	if err := model.ValidateEnvName(f.Name); err != nil {
		return nil, model.WrapCLIError(
			model.ExitEnvFileError,
			"environment file "+abs+" declares an unusable name",
			err,
		)
	}

	f.Path = abs
	return &f, nil
}

// CondaSpecs returns the plain conda package specs in declaration order.
func (f *File) CondaSpecs() []string {
	var specs []string
	for _, d := range f.Dependencies {
		if d.Spec != "" {
			specs = append(specs, d.Spec)
		}
	}
	return specs
}

// PipRequirements returns all pip requirement strings in declaration order.
func (f *File) PipRequirements() []string {
	var reqs []string
	for _, d := range f.Dependencies {
		reqs = append(reqs, d.Pip...)
	}
	return reqs
}

// PackageCount is the total number of declared packages, conda and pip
// combined. Used for result summaries only.
func (f *File) PackageCount() int {
	return len(f.CondaSpecs()) + len(f.PipRequirements())
}
