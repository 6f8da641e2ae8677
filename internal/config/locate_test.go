// Package config — locate_test.go covers config discovery: the filename
// priority order and the walk up parent directories.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "internal", "runner")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	expected := writeConfig(t, root, "runbox.toml", tomlFixture)

	got, err := Locate(nested)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestLocateFilenamePriority(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "runbox.yaml", "version: 1\n")
	expected := writeConfig(t, dir, "runbox.toml", tomlFixture)

	// TOML outranks YAML within the same directory.
	got, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestLocateNearerFileWins(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeConfig(t, root, "runbox.toml", tomlFixture)
	// Even a lower-priority filename wins when it is closer to the
	// starting directory.
	expected := writeConfig(t, nested, "runbox.yaml", "version: 1\nenv:\n  t:\n    commands: [[true]]\n")

	got, err := Locate(nested)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestLocateNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Locate(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runbox config file found")
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "runbox.toml", tomlFixture)

	t.Run("explicit path", func(t *testing.T) {
		cfg, err := LoadFrom(path, "/nonexistent")
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Path)
	})

	t.Run("discovered path", func(t *testing.T) {
		cfg, err := LoadFrom("", dir)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Path)
	})
}
