package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/YoshitsuguKoike/evolve/internal/application/dto"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
)

const usageLine = "evolve [flags] [runtime] <path_to_script> [args...]"

// targetResolver turns positional arguments into a script target
type targetResolver struct {
	isExecutable func(path string) bool
	stat         func(path string) (os.FileInfo, error)
	abs          func(path string) (string, error)
}

func newTargetResolver(isExecutable func(string) bool) *targetResolver {
	return &targetResolver{isExecutable: isExecutable, stat: os.Stat, abs: filepath.Abs}
}

// resolve applies the positional rules: when the first argument is an
// executable file it is the script; otherwise it names the runtime and
// the second argument is the script.
func (r *targetResolver) resolve(args []string) (dto.RunScriptInput, error) {
	if len(args) == 0 {
		return dto.RunScriptInput{}, fmt.Errorf("%w: %s", script.ErrUsage, usageLine)
	}

	first, err := r.abs(args[0])
	if err != nil {
		return dto.RunScriptInput{}, fmt.Errorf("%w: %v", script.ErrUsage, err)
	}

	var in dto.RunScriptInput
	if r.isExecutable(first) {
		in.Path = first
		in.Args = append([]string(nil), args[1:]...)
	} else {
		if len(args) < 2 {
			return dto.RunScriptInput{}, fmt.Errorf("%w: %s", script.ErrUsage, usageLine)
		}
		path, err := r.abs(args[1])
		if err != nil {
			return dto.RunScriptInput{}, fmt.Errorf("%w: %v", script.ErrUsage, err)
		}
		in.Runtime = args[0]
		in.Path = path
		in.Args = append([]string(nil), args[2:]...)
	}

	info, err := r.stat(in.Path)
	if err != nil || !info.Mode().IsRegular() {
		return dto.RunScriptInput{}, fmt.Errorf("%w: File '%s' does not exist", script.ErrTargetNotFound, in.Path)
	}
	return in, nil
}
