// Package config — validate_test.go covers structural validation.
// Each case is a minimal config that violates exactly one rule; Load is
// used as the entry point so the tests also prove validation actually
// runs on load.
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/runbox/internal/model"
)

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "wrong version",
			content: "version = 2\n[env.test]\ncommands = [[\"true\"]]\n",
			wantMsg: "unsupported config version 2",
		},
		{
			name:    "no environments",
			content: "version = 1\n",
			wantMsg: "no environments defined",
		},
		{
			name:    "bad environment name",
			content: "version = 1\n[env.bad_name]\ncommands = [[\"true\"]]\n",
			wantMsg: "invalid environment name",
		},
		{
			name:    "commands and uses together",
			content: "version = 1\n[env.a]\ncommands = [[\"true\"]]\n[env.b]\ncommands = [[\"true\"]]\nuses = [\"a\"]\n",
			wantMsg: "sets both commands and uses",
		},
		{
			name:    "neither commands nor uses",
			content: "version = 1\n[env.empty]\ndescription = \"nothing\"\n",
			wantMsg: "neither commands nor uses",
		},
		{
			name:    "empty command",
			content: "version = 1\n[env.a]\ncommands = [[]]\n",
			wantMsg: "command 1 is empty",
		},
		{
			name:    "blank program name",
			content: "version = 1\n[env.a]\ncommands = [[\" \"]]\n",
			wantMsg: "empty program name",
		},
		{
			name:    "undeclared extras group",
			content: "version = 1\n[env.a]\nextras = [\"lint\"]\ncommands = [[\"true\"]]\n",
			wantMsg: "undeclared extras group \"lint\"",
		},
		{
			name:    "extras group without tools",
			content: "version = 1\n[extras]\nlint = []\n[env.a]\ncommands = [[\"true\"]]\n",
			wantMsg: "lists no tools",
		},
		{
			name:    "uses unknown environment",
			content: "version = 1\n[env.a]\nuses = [\"ghost\"]\n",
			wantMsg: "uses undefined environment \"ghost\"",
		},
		{
			name:    "uses cycle",
			content: "version = 1\n[env.a]\nuses = [\"b\"]\n[env.b]\nuses = [\"a\"]\n",
			wantMsg: "cycle",
		},
		{
			name:    "self cycle",
			content: "version = 1\n[env.a]\nuses = [\"a\"]\n",
			wantMsg: "cycle",
		},
		{
			name:    "container without image",
			content: "version = 1\n[env.a]\ncommands = [[\"true\"]]\n[env.a.container]\nworkdir = \"/src\"\n",
			wantMsg: "container block requires an image",
		},
		{
			name:    "container on aggregate",
			content: "version = 1\n[env.a]\ncommands = [[\"true\"]]\n[env.b]\nuses = [\"a\"]\n[env.b.container]\nimage = \"golang:1.25\"\n",
			wantMsg: "aggregate and cannot set a container block",
		},
		{
			name:    "envlist references unknown environment",
			content: "version = 1\n[defaults]\nenvlist = [\"ghost\"]\n[env.a]\ncommands = [[\"true\"]]\n",
			wantMsg: "envlist references undefined environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, "runbox.toml", tt.content)
			_, err := Load(path)
			require.Error(t, err)

			var cliErr *model.CLIError
			require.ErrorAs(t, err, &cliErr)
			assert.Equal(t, model.ExitConfigError, cliErr.Code)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// TestValidateAcceptsFixture proves the representative fixture used across
// the package tests is itself valid.
func TestValidateAcceptsFixture(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeConfig(t, dir, "runbox.toml", tomlFixture))
	assert.NoError(t, err)
}
