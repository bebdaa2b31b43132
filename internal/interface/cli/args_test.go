package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
)

type fakeInfo struct {
	mode fs.FileMode
}

func (i fakeInfo) Name() string       { return "f" }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() interface{}   { return nil }

func newFakeResolver(executables map[string]bool, files map[string]fs.FileMode) *targetResolver {
	return &targetResolver{
		isExecutable: func(p string) bool { return executables[p] },
		stat: func(p string) (os.FileInfo, error) {
			mode, ok := files[p]
			if !ok {
				return nil, os.ErrNotExist
			}
			return fakeInfo{mode: mode}, nil
		},
		abs: func(p string) (string, error) {
			if p == "" {
				return "", errors.New("empty path")
			}
			if p[0] == '/' {
				return p, nil
			}
			return "/work/" + p, nil
		},
	}
}

func TestTargetResolver_Resolve(t *testing.T) {
	resolver := newFakeResolver(
		map[string]bool{"/work/run.sh": true},
		map[string]fs.FileMode{
			"/work/run.sh": 0o755,
			"/work/app.py": 0o644,
			"/work/dir":    fs.ModeDir | 0o755,
		},
	)

	tests := []struct {
		name        string
		args        []string
		wantPath    string
		wantRuntime string
		wantArgs    []string
		wantErr     error
	}{
		{
			name:     "Executable script runs directly",
			args:     []string{"run.sh", "-v", "x"},
			wantPath: "/work/run.sh",
			wantArgs: []string{"-v", "x"},
		},
		{
			name:        "Runtime then script",
			args:        []string{"python3", "app.py", "--flag"},
			wantPath:    "/work/app.py",
			wantRuntime: "python3",
			wantArgs:    []string{"--flag"},
		},
		{
			name:        "Runtime then executable script",
			args:        []string{"bash", "/work/run.sh"},
			wantPath:    "/work/run.sh",
			wantRuntime: "bash",
		},
		{
			name:    "No arguments",
			args:    nil,
			wantErr: script.ErrUsage,
		},
		{
			name:    "Runtime without script",
			args:    []string{"python3"},
			wantErr: script.ErrUsage,
		},
		{
			name:    "Missing script",
			args:    []string{"python3", "missing.py"},
			wantErr: script.ErrTargetNotFound,
		},
		{
			name:    "Directory is not a script",
			args:    []string{"python3", "dir"},
			wantErr: script.ErrTargetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := resolver.resolve(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, in.Path)
			assert.Equal(t, tt.wantRuntime, in.Runtime)
			assert.Equal(t, tt.wantArgs, in.Args)
		})
	}
}

func TestTargetResolver_NotFoundMessage(t *testing.T) {
	resolver := newFakeResolver(nil, nil)

	_, err := resolver.resolve([]string{"node", "gone.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File '/work/gone.js' does not exist")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(script.ErrUsage))
	assert.Equal(t, ExitFailure, ExitCode(script.ErrAttemptsExhausted))
	assert.Equal(t, ExitInterrupted, ExitCode(context.Canceled))
}
