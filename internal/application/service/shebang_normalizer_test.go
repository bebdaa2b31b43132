package service

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/evolve/internal/infra/persistence/file"
)

func newTestNormalizer(t *testing.T) (*ShebangNormalizer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewShebangNormalizer(NewContentTypeResolver(), file.NewScriptStore(fs)), fs
}

func TestShebangNormalizer_Normalize(t *testing.T) {
	normalizer, _ := newTestNormalizer(t)

	tests := []struct {
		name        string
		path        string
		body        string
		want        string
		wantChanged bool
	}{
		{"Adds directive", "/w/app.py", "print(1)\n", "#!/usr/bin/env python3\nprint(1)\n", true},
		{"Keeps existing directive", "/w/app.py", "#!/usr/bin/python\nprint(1)\n", "#!/usr/bin/python\nprint(1)\n", false},
		{"Directive wins over content type", "/w/app.rb", "#!/bin/sh\necho\n", "#!/bin/sh\necho\n", false},
		{"Unknown content type", "/w/notes.txt", "hello\n", "hello\n", false},
		{"Empty body", "/w/run.sh", "", "#!/usr/bin/env bash\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := normalizer.Normalize(tt.path, tt.body)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestShebangNormalizer_EnsureShebangIsIdempotent(t *testing.T) {
	normalizer, fs := newTestNormalizer(t)
	require.NoError(t, afero.WriteFile(fs, "/w/app.py", []byte("print(1)\n"), 0o644))

	first, changed, err := normalizer.EnsureShebang("/w/app.py")
	require.NoError(t, err)
	assert.True(t, changed)

	onDisk, err := afero.ReadFile(fs, "/w/app.py")
	require.NoError(t, err)
	assert.Equal(t, first, string(onDisk))

	second, changed, err := normalizer.EnsureShebang("/w/app.py")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, second)

	again, err := afero.ReadFile(fs, "/w/app.py")
	require.NoError(t, err)
	assert.Equal(t, onDisk, again)
}

func TestShebangNormalizer_ApplyLeavesFileWhenUnchanged(t *testing.T) {
	normalizer, fs := newTestNormalizer(t)
	require.NoError(t, afero.WriteFile(fs, "/w/notes.txt", []byte("hello\n"), 0o644))

	body, changed, err := normalizer.Apply("/w/notes.txt", "hello\n")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "hello\n", body)
}

func TestShebangNormalizer_EnsureShebangMissingFile(t *testing.T) {
	normalizer, _ := newTestNormalizer(t)

	_, _, err := normalizer.EnsureShebang("/w/missing.py")
	assert.Error(t, err)
}
