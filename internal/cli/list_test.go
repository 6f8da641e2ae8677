// Package cli — list_test.go contains unit tests for the pure helpers
// behind the list and show commands. These tests verify data
// transformation logic without capturing stdout or touching Docker.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/runbox/internal/config"
)

// loadCLIFixture writes a representative config into a temp dir and
// loads it.
func loadCLIFixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runbox.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
version = 1

[defaults]
envlist = ["test"]

[extras]
lint = ["staticcheck", "gofmt"]

[env.test]
description = "unit tests"
commands = [["go", "test", "{posargs:./...}"]]

[env.style]
extras = ["lint"]
commands = [["staticcheck", "./..."], ["gofmt", "-l", "."]]

[env.lint]
description = "all checkers"
uses = ["style"]

[env.boxed]
commands = [["go", "test", "./..."]]

[env.boxed.container]
image = "golang:1.25"
`), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildListEntries(t *testing.T) {
	cfg := loadCLIFixture(t)
	entries := buildListEntries(cfg)

	require.Len(t, entries, 4)
	// Entries are sorted by name.
	assert.Equal(t, "boxed", entries[0].Name)
	assert.Equal(t, "container", entries[0].Kind)
	assert.Equal(t, "lint", entries[1].Name)
	assert.Equal(t, "aggregate", entries[1].Kind)
	assert.Equal(t, 1, entries[1].Commands, "aggregates count members")
	assert.Equal(t, "style", entries[2].Name)
	assert.Equal(t, 2, entries[2].Commands)
	assert.Equal(t, "test", entries[3].Name)
	assert.True(t, entries[3].Default, "envlist members are flagged")
	assert.False(t, entries[2].Default)
	assert.Equal(t, "unit tests", entries[3].Description)
}

func TestFormatUsesList(t *testing.T) {
	assert.Equal(t, "-", FormatUsesList(nil))
	assert.Equal(t, "style", FormatUsesList([]string{"style"}))
	assert.Equal(t, "style, docslint", FormatUsesList([]string{"style", "docslint"}))
}

func TestResolveShownEnv(t *testing.T) {
	cfg := loadCLIFixture(t)

	t.Run("posargs default shows through", func(t *testing.T) {
		env, err := cfg.Environment("test")
		require.NoError(t, err)
		shown, err := resolveShownEnv(cfg, env)
		require.NoError(t, err)

		assert.Equal(t, [][]string{{"go", "test", "./..."}}, shown.Commands)
		assert.Equal(t, cfg.WorkdirFor("test"), shown.Workdir)
	})

	t.Run("tools come from extras", func(t *testing.T) {
		env, err := cfg.Environment("style")
		require.NoError(t, err)
		shown, err := resolveShownEnv(cfg, env)
		require.NoError(t, err)

		assert.Equal(t, []string{"staticcheck", "gofmt"}, shown.Tools)
	})

	t.Run("container block is carried", func(t *testing.T) {
		env, err := cfg.Environment("boxed")
		require.NoError(t, err)
		shown, err := resolveShownEnv(cfg, env)
		require.NoError(t, err)

		require.NotNil(t, shown.Container)
		assert.Equal(t, "golang:1.25", shown.Container.Image)
	})
}
