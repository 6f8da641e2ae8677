// Package interp — interp_test.go exercises placeholder substitution for
// command lines, including posargs splicing, environment lookups with
// defaults, and brace escaping.
package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext builds a Context with a map-backed environment lookup so
// tests never depend on the real process environment.
func testContext(posargs []string, env map[string]string) *Context {
	return &Context{
		Posargs: posargs,
		EnvName: "test",
		Basedir: "/project",
		Workdir: "/project/.runbox/test",
		Lookup: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}
}

// TestExpandArgvPosargsSplicing verifies the splice semantics: a word that
// is exactly a posargs placeholder expands to zero or more argv elements.
func TestExpandArgvPosargsSplicing(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		posargs []string
		want    []string
	}{
		{
			name:    "no posargs drops the word",
			argv:    []string{"pytest", "{posargs}"},
			posargs: nil,
			want:    []string{"pytest"},
		},
		{
			name:    "posargs splice one-to-one",
			argv:    []string{"pytest", "{posargs}"},
			posargs: []string{"-k", "smoke test"},
			want:    []string{"pytest", "-k", "smoke test"},
		},
		{
			name:    "default used when no posargs",
			argv:    []string{"go", "test", "{posargs:./...}"},
			posargs: nil,
			want:    []string{"go", "test", "./..."},
		},
		{
			name:    "default with spaces splits into words",
			argv:    []string{"go", "test", "{posargs:-count=1 ./...}"},
			posargs: nil,
			want:    []string{"go", "test", "-count=1", "./..."},
		},
		{
			name:    "posargs override the default",
			argv:    []string{"go", "test", "{posargs:./...}"},
			posargs: []string{"./internal/runner"},
			want:    []string{"go", "test", "./internal/runner"},
		},
		{
			name:    "embedded posargs join with spaces",
			argv:    []string{"echo", "args={posargs}"},
			posargs: []string{"a", "b"},
			want:    []string{"echo", "args=a b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandArgv(tt.argv, testContext(tt.posargs, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestExpandStringPlaceholders verifies env/envname/basedir/workdir
// placeholders and brace escaping.
func TestExpandStringPlaceholders(t *testing.T) {
	env := map[string]string{
		"CI":       "true",
		"COVER":    "",
		"HOMEPATH": "C:\\Users\\dev",
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "plain string untouched", input: "go test ./...", want: "go test ./..."},
		{name: "env variable", input: "{env:CI}", want: "true"},
		{name: "env set to empty string wins over default", input: "{env:COVER:atomic}", want: ""},
		{name: "env default applies when unset", input: "{env:MODE:count}", want: "count"},
		{name: "env default may contain colons", input: "{env:REGISTRY:localhost:5000}", want: "localhost:5000"},
		{name: "envname", input: "run-{envname}", want: "run-test"},
		{name: "basedir", input: "{basedir}/coverage.out", want: "/project/coverage.out"},
		{name: "workdir", input: "{workdir}/report", want: "/project/.runbox/test/report"},
		{name: "escaped braces", input: "{{posargs}}", want: "{posargs}"},
		{name: "unset env without default", input: "{env:MISSING}", wantErr: "is not set"},
		{name: "empty env name", input: "{env:}", wantErr: "empty variable name"},
		{name: "unknown placeholder", input: "{bogus}", wantErr: "unknown placeholder"},
		{name: "unterminated placeholder", input: "{env:CI", wantErr: "unterminated placeholder"},
		{name: "unmatched closing brace", input: "oops}", wantErr: "unmatched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(tt.input, testContext(nil, env))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestExpandMap verifies map expansion used for setenv blocks, including
// error attribution to the offending key.
func TestExpandMap(t *testing.T) {
	ctx := testContext([]string{"-v"}, map[string]string{"CI": "true"})

	t.Run("nil map stays nil", func(t *testing.T) {
		got, err := ExpandMap(nil, ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("values are expanded", func(t *testing.T) {
		got, err := ExpandMap(map[string]string{
			"COVERAGE_FILE": "{workdir}/coverage.out",
			"EXTRA":         "{posargs}",
		}, ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"COVERAGE_FILE": "/project/.runbox/test/coverage.out",
			"EXTRA":         "-v",
		}, got)
	})

	t.Run("errors name the key", func(t *testing.T) {
		_, err := ExpandMap(map[string]string{"BAD": "{nope}"}, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"BAD"`)
	})
}

// TestExpandArgvMultiplePlaceholdersPerWord guards against the splice
// shortcut firing on words that merely start and end with braces.
func TestExpandArgvMultiplePlaceholdersPerWord(t *testing.T) {
	ctx := testContext([]string{"x"}, nil)
	got, err := ExpandArgv([]string{"{envname}-{posargs}"}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-x"}, got)

	got, err = ExpandArgv([]string{"{posargs}{posargs}"}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"xx"}, got)
}
