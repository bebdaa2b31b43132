//go:build windows

package terminal

import (
	"os"
	"path/filepath"
	"strings"
)

// IsExecutable reports whether path is a regular file with an executable extension
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".bat", ".cmd", ".com":
		return true
	}
	return false
}
