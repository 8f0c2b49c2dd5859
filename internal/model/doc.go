// Package model defines the domain types and value objects for the
// reconda CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (EnvInfo, ManagerKind, etc.) are transient representations
// reconstructed from the environment manager's own output at runtime —
// reconda keeps no registry of its own; the manager's on-disk environment
// list is the single source of truth.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
