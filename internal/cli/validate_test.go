// Package cli — validate_test.go covers the acceptance checks layered on
// top of structural config validation.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/model"
)

func TestCollectProblems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.test\n"), 0o644))
	path := filepath.Join(dir, "runbox.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
version = 1

[extras]
lint = ["present-tool", "absent-tool"]

[env.style]
extras = ["lint"]
commands = [["present-tool"]]
checkpaths = ["go.mod", "docs/src"]
`), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	lookPath := func(name string) (string, error) {
		if name == "present-tool" {
			return "/usr/bin/present-tool", nil
		}
		return "", errors.New("not found")
	}

	t.Run("checkpaths only", func(t *testing.T) {
		problems := collectProblems(cfg, false, lookPath)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], `"docs/src" does not exist`)
	})

	t.Run("with tool checks", func(t *testing.T) {
		problems := collectProblems(cfg, true, lookPath)
		require.Len(t, problems, 2)
		assert.Contains(t, problems[1], `tool "absent-tool" not found on PATH`)
	})

	t.Run("clean config has no problems", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "src"), 0o755))
		problems := collectProblems(cfg, false, lookPath)
		assert.Empty(t, problems)
	})
}

func TestFailureMessage(t *testing.T) {
	results := []model.RunResult{
		{Env: "test", Outcome: model.OutcomePassed},
		{Env: "style", Outcome: model.OutcomeFailed, Code: model.ExitCommandFailed},
		{Env: "docs", Outcome: model.OutcomeError, Code: model.ExitToolMissing},
	}
	assert.Equal(t, "2 of 3 environment(s) did not pass", failureMessage(results))
}
