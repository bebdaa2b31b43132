package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	defaultScriptPerm os.FileMode = 0o644
	maxLinkHops                   = 40
)

// ScriptStore reads and replaces script files on an afero filesystem
type ScriptStore struct {
	fs afero.Fs
}

// NewScriptStore creates a store; pass afero.NewOsFs() for the real disk
func NewScriptStore(fs afero.Fs) *ScriptStore {
	return &ScriptStore{fs: fs}
}

// Load returns the file contents as text
func (s *ScriptStore) Load(path string) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("read script %s: %w", path, err)
	}
	return string(data), nil
}

// Save replaces the file contents, keeping its current permissions.
// A symlinked script is written through to the file it points at.
func (s *ScriptStore) Save(path, body string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return fmt.Errorf("write script %s: %w", path, err)
	}
	if err := WriteFileAtomic(s.fs, resolved, []byte(body), s.perm(resolved)); err != nil {
		return fmt.Errorf("write script %s: %w", path, err)
	}
	return nil
}

// SaveCopy writes body to dst with the permissions of src
func (s *ScriptStore) SaveCopy(src, dst, body string) error {
	if err := WriteFileAtomic(s.fs, dst, []byte(body), s.perm(src)); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func (s *ScriptStore) perm(path string) os.FileMode {
	info, err := s.fs.Stat(path)
	if err != nil {
		return defaultScriptPerm
	}
	return info.Mode().Perm()
}

// resolve follows symlinks on filesystems that expose them
func (s *ScriptStore) resolve(path string) (string, error) {
	lstater, ok := s.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}
	for i := 0; i < maxLinkHops; i++ {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if os.IsNotExist(err) {
				return path, nil
			}
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return "", fmt.Errorf("too many levels of symbolic links")
}
