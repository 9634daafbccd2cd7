// Package state guards the on-disk directories shared by the audit
// journal, export snapshots and crash diagnostics.
package state

import (
	"fmt"
	"os"
)

// EnsureDir creates dir with owner-only permissions. It rejects
// symlinked, non-directory or group-writable replacements and verifies
// the directory is writable, so runtime files cannot be silently
// redirected or lost.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("empty directory path")
	}

	// if the path exists, reject symlinks and non-directories
	if fi, err := os.Lstat(dir); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("path is a symlink: %s", dir)
		}
		if !fi.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %s", dir)
		}
		if fi.Mode().Perm()&0o022 != 0 {
			return fmt.Errorf("path has permissive mode (group/other write): %s", dir)
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("cannot create path %s: %w", dir, err)
	}

	// double-check no symlink after creation
	if fi, err := os.Lstat(dir); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("path is a symlink after creation: %s", dir)
		}
	}

	// writability check: create and remove a temp file
	tmp, err := os.CreateTemp(dir, ".validate-*")
	if err != nil {
		return fmt.Errorf("path not writable: %s: %w", dir, err)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())

	return nil
}
