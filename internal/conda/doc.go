// Package conda wraps the external conda/mamba binary via os/exec.
//
// This package is the manager integration layer: it discovers the
// binary on PATH, queries the base installation and the environment
// registry, and performs the destructive remove/create sequence that
// reconda exists for. It deliberately implements no environment or
// dependency resolution of its own — the manager binary is an opaque
// collaborator and its registry is the single source of truth.
//
// Query subcommands (info, env list) are run with captured output so
// failures can include stderr in the error message. Mutating
// subcommands (env remove, env create, run) can take minutes and print
// solver progress, so their output is streamed through to the user.
// All invocations accept a context and are killed when it is cancelled.
package conda
