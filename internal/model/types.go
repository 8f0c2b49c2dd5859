package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ManagerKind identifies which environment-manager binary reconda drives.
// The manager is an external, pre-installed tool; reconda only sequences
// its subcommands and never implements environment resolution itself.
type ManagerKind string

const (
	// ManagerAuto lets reconda pick the first available binary.
	// Detection order prefers mamba (a drop-in conda superset with a much
	// faster solver) and falls back to conda.
	ManagerAuto ManagerKind = "auto"

	// ManagerConda forces the classic conda binary.
	ManagerConda ManagerKind = "conda"

	// ManagerMamba forces the mamba binary.
	ManagerMamba ManagerKind = "mamba"
)

// String returns the string representation of ManagerKind.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (k ManagerKind) String() string {
	return string(k)
}

// IsValid checks whether the ManagerKind value is one of the
// predefined valid kinds.
func (k ManagerKind) IsValid() bool {
	switch k {
	case ManagerAuto, ManagerConda, ManagerMamba:
		return true
	default:
		return false
	}
}

// ParseManagerKind converts a string to a ManagerKind.
// Returns an error if the string does not match any valid kind.
func ParseManagerKind(s string) (ManagerKind, error) {
	kind := ManagerKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid manager %q (valid: auto, conda, mamba)", s)
	}
	return kind, nil
}

// EnvInfo describes a single environment registered with the manager.
// It is derived from `env list --json` output, which reports only
// prefixes; the name is reconstructed from the prefix basename.
type EnvInfo struct {
	// Name is the environment name as understood by `-n` flags.
	// The base installation is always named "base".
	Name string `json:"name"`

	// Prefix is the absolute filesystem path of the environment.
	Prefix string `json:"prefix"`

	// IsBase marks the manager's base installation prefix. The base
	// environment is never a valid target for remove or recreate.
	IsBase bool `json:"isBase"`

	// ByPath marks an environment whose prefix lives outside the
	// standard envs directory (created with -p). Its Name is the prefix
	// basename for display only; `-n` flags do not resolve to it, so it
	// is never a valid target for remove, recreate, or run.
	ByPath bool `json:"byPath"`
}

// envNameRegex validates environment names. Conda accepts a broader
// character set than it documents, but names outside this set routinely
// break activation and prefix handling, so reconda rejects them up front:
// the name must start with an alphanumeric and may contain alphanumerics,
// dots, hyphens, and underscores.
var envNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateEnvName checks if the given name is a usable environment name.
func ValidateEnvName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !envNameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must start with an alphanumeric and contain only alphanumerics, dots, hyphens, and underscores", name)
	}
	return nil
}

// ExitCode defines the CLI exit-code contract. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitEnvFileError indicates the YAML environment file is missing,
	// unreadable, or malformed.
	ExitEnvFileError ExitCode = 2

	// ExitManagerNotFound indicates no usable conda/mamba binary was
	// found on PATH.
	ExitManagerNotFound ExitCode = 3

	// ExitManagerError indicates the manager binary was invoked but
	// exited with a failure.
	ExitManagerError ExitCode = 4

	// ExitEnvNotFound indicates the named environment is not registered
	// with the manager.
	ExitEnvNotFound ExitCode = 5

	// ExitNameMismatch indicates the environment name configured for the
	// project differs from the name declared in the YAML environment file.
	ExitNameMismatch ExitCode = 6

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
