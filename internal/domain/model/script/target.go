package script

import (
	"fmt"
	"path/filepath"
)

// Target identifies the script being evolved.
// It is resolved once at startup and never mutated afterwards.
type Target struct {
	path    string
	runtime string
	args    []string
}

// NewTarget creates a target for an absolute script path.
// runtime may be empty when the script is directly executable.
func NewTarget(path, runtime string, args []string) (Target, error) {
	if path == "" {
		return Target{}, fmt.Errorf("script path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return Target{}, fmt.Errorf("script path must be absolute: %s", path)
	}
	copied := make([]string, len(args))
	copy(copied, args)
	return Target{path: filepath.Clean(path), runtime: runtime, args: copied}, nil
}

// Path returns the absolute script path
func (t Target) Path() string {
	return t.path
}

// Runtime returns the explicit interpreter, or "" when none was given
func (t Target) Runtime() string {
	return t.runtime
}

// HasRuntime reports whether an explicit interpreter was supplied
func (t Target) HasRuntime() bool {
	return t.runtime != ""
}

// Args returns a copy of the script arguments
func (t Target) Args() []string {
	out := make([]string, len(t.args))
	copy(out, t.args)
	return out
}

// Command builds the argv for one attempt.
// An executable script runs directly; otherwise it is handed to the runtime.
func (t Target) Command(executable bool) []string {
	argv := make([]string, 0, len(t.args)+2)
	if executable || t.runtime == "" {
		argv = append(argv, t.path)
	} else {
		argv = append(argv, t.runtime, t.path)
	}
	return append(argv, t.args...)
}

func (t Target) String() string {
	if t.runtime == "" {
		return t.path
	}
	return t.runtime + " " + t.path
}
