// Package model — types_test.go contains unit tests for the domain type
// helpers: outcome parsing, environment name validation, and the
// CLIError wrapping behavior.
package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseOutcome verifies string-to-Outcome conversion, including
// case folding and rejection of unknown values.
func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Outcome
		wantErr bool
	}{
		{name: "passed", input: "passed", want: OutcomePassed},
		{name: "failed", input: "failed", want: OutcomeFailed},
		{name: "error", input: "error", want: OutcomeError},
		{name: "skipped", input: "skipped", want: OutcomeSkipped},
		{name: "uppercase is folded", input: "PASSED", want: OutcomePassed},
		{name: "unknown value", input: "exploded", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutcome(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestValidateName verifies the environment naming rules: alphanumeric
// plus hyphens, starting and ending with an alphanumeric character.
func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		envName string
		wantErr bool
	}{
		{name: "simple name", envName: "test"},
		{name: "hyphenated name", envName: "docker-test"},
		{name: "single character", envName: "a"},
		{name: "digits allowed", envName: "py312"},
		{name: "empty name rejected", envName: "", wantErr: true},
		{name: "leading hyphen rejected", envName: "-lint", wantErr: true},
		{name: "trailing hyphen rejected", envName: "lint-", wantErr: true},
		{name: "underscore rejected", envName: "doc_style", wantErr: true},
		{name: "slash rejected", envName: "lint/fast", wantErr: true},
		{name: "space rejected", envName: "unit tests", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.envName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestEnvironmentKind verifies the Kind classification used by list output.
func TestEnvironmentKind(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		want string
	}{
		{
			name: "plain command environment",
			env:  Environment{Name: "test", Commands: [][]string{{"go", "test", "./..."}}},
			want: "commands",
		},
		{
			name: "aggregate environment",
			env:  Environment{Name: "lint", Uses: []string{"style", "docslint"}},
			want: "aggregate",
		},
		{
			name: "container environment",
			env: Environment{
				Name:      "docker-test",
				Commands:  [][]string{{"go", "test", "./..."}},
				Container: &ContainerSpec{Image: "golang:1.25"},
			},
			want: "container",
		},
		{
			name: "aggregate wins over container block",
			env: Environment{
				Name:      "all",
				Uses:      []string{"test"},
				Container: &ContainerSpec{Image: "golang:1.25"},
			},
			want: "aggregate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.env.Kind())
		})
	}
}

// TestCLIErrorWrapping verifies that CLIError formats its message with and
// without an underlying error, and that Unwrap exposes the cause for
// errors.Is checks.
func TestCLIErrorWrapping(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := NewCLIError(ExitEnvNotFound, "environment \"deploy\" not found")
		assert.Equal(t, "environment \"deploy\" not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := WrapCLIError(ExitConfigError, "failed to read runbox.toml", cause)
		assert.Equal(t, "failed to read runbox.toml: permission denied", err.Error())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("errors.As recovers the exit code", func(t *testing.T) {
		var cliErr *CLIError
		err := error(WrapCLIError(ExitToolMissing, "tool not found", errors.New("exec: \"flake8\": executable file not found in $PATH")))
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, ExitToolMissing, cliErr.Code)
	})
}

// TestRunResultSucceeded verifies the success predicate used by the
// summary renderer to pick the process exit code.
func TestRunResultSucceeded(t *testing.T) {
	assert.True(t, (&RunResult{Env: "test", Outcome: OutcomePassed}).Succeeded())
	assert.False(t, (&RunResult{Env: "test", Outcome: OutcomeFailed}).Succeeded())
	assert.False(t, (&RunResult{Env: "test", Outcome: OutcomeError}).Succeeded())
	assert.False(t, (&RunResult{Env: "test", Outcome: OutcomeSkipped}).Succeeded())
}
