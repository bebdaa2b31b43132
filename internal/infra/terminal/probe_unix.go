//go:build !windows

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsExecutable reports whether path is a regular file the current user may execute
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
