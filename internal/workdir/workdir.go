// Package workdir implements scoped working-directory changes.
//
// Environment creation must run from the project root so that relative
// paths inside the YAML environment file (pip requirements files,
// editable installs like "-e .") resolve against the project rather than
// wherever the user happened to invoke reconda from. The contract is
// strict: the previous working directory is restored on every exit path,
// success or failure, so the change never leaks into the caller's shell
// session or into subsequent operations.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scoped changes the process working directory to dir and returns a
// restore function that switches back to the directory that was current
// when Scoped was called. Callers must defer the restore function
// immediately after a successful return:
//
//	restore, err := workdir.Scoped(root)
//	if err != nil {
//		return err
//	}
//	defer restore()
//
// If the initial change fails, the working directory is untouched and
// no restore is needed. The returned restore function is idempotent —
// calling it more than once only performs the first switch back.
func Scoped(dir string) (restore func() error, err error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine current directory: %w", err)
	}

	// Resolve the target before changing anything so error messages
	// always show an absolute path.
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %q: %w", dir, err)
	}

	if err := os.Chdir(abs); err != nil {
		return nil, fmt.Errorf("failed to enter directory %s: %w", abs, err)
	}

	restored := false
	return func() error {
		if restored {
			return nil
		}
		restored = true
		if err := os.Chdir(prev); err != nil {
			return fmt.Errorf("failed to restore working directory %s: %w", prev, err)
		}
		return nil
	}, nil
}
