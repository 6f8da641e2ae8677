// Package interp implements placeholder substitution for command lines and
// config values.
//
// Supported placeholders:
//
//	{posargs}            extra CLI arguments given after "--"
//	{posargs:DEFAULT}    like {posargs}, but DEFAULT when no args were given
//	{env:NAME}           process environment variable (error if unset)
//	{env:NAME:DEFAULT}   process environment variable with fallback
//	{envname}            name of the environment being run
//	{basedir}            directory containing the config file
//	{workdir}            the environment's work directory
//
// Literal braces are written as {{ and }}. An unterminated or unknown
// placeholder is an error rather than being passed through silently, so
// typos in config files surface before any command runs.
package interp

import (
	"fmt"
	"os"
	"strings"
)

// Context carries the values placeholders expand to. A single Context is
// built per environment run and shared by all of its commands.
type Context struct {
	// Posargs holds the extra CLI arguments passed after "--".
	Posargs []string

	// EnvName is the name of the environment being expanded.
	EnvName string

	// Basedir is the absolute path of the directory containing the
	// config file.
	Basedir string

	// Workdir is the absolute path of the environment's work directory.
	Workdir string

	// Lookup resolves {env:NAME} placeholders. When nil, os.LookupEnv
	// is used. Tests inject a map-backed lookup here.
	Lookup func(name string) (string, bool)
}

// lookupEnv resolves an environment variable through the injected Lookup
// function, falling back to the real process environment.
func (c *Context) lookupEnv(name string) (string, bool) {
	if c.Lookup != nil {
		return c.Lookup(name)
	}
	return os.LookupEnv(name)
}

// ExpandArgv substitutes placeholders in every word of a command line.
//
// A word that consists solely of a posargs placeholder is spliced: the
// positional arguments replace the word one-to-one, and the word disappears
// entirely when there are none (and no default). This matches how task
// runners splice pass-through arguments — "pytest {posargs}" with no extra
// args must run plain "pytest", not "pytest ''".
func ExpandArgv(argv []string, ctx *Context) ([]string, error) {
	result := make([]string, 0, len(argv))
	for _, word := range argv {
		// Splice case: the whole word is a posargs placeholder.
		if args, ok, err := splicePosargs(word, ctx); err != nil {
			return nil, fmt.Errorf("in %q: %w", word, err)
		} else if ok {
			result = append(result, args...)
			continue
		}

		expanded, err := ExpandString(word, ctx)
		if err != nil {
			return nil, fmt.Errorf("in %q: %w", word, err)
		}
		result = append(result, expanded)
	}
	return result, nil
}

// splicePosargs checks whether word is exactly "{posargs}" or
// "{posargs:DEFAULT}" and, if so, returns the argument list it splices to.
// The second return value reports whether the word was a splice.
func splicePosargs(word string, ctx *Context) ([]string, bool, error) {
	if !strings.HasPrefix(word, "{") || !strings.HasSuffix(word, "}") {
		return nil, false, nil
	}
	inner := word[1 : len(word)-1]
	// Reject words like "{posargs}x{posargs}" — the prefix/suffix test
	// above is not enough when the word contains multiple placeholders.
	if strings.ContainsAny(inner, "{}") {
		return nil, false, nil
	}

	if inner == "posargs" {
		return ctx.Posargs, true, nil
	}
	if def, ok := strings.CutPrefix(inner, "posargs:"); ok {
		if len(ctx.Posargs) > 0 {
			return ctx.Posargs, true, nil
		}
		// The default is a command-line fragment, so it splits on spaces
		// the same way the shell-less argv form would write it.
		return strings.Fields(def), true, nil
	}
	return nil, false, nil
}

// ExpandString substitutes all placeholders in a single string. Posargs
// placeholders expand inline, joined by single spaces.
func ExpandString(s string, ctx *Context) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		switch s[i] {
		case '{':
			// Escaped literal brace.
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder starting at %q", s[i:])
			}
			value, err := expandPlaceholder(s[i+1:i+end], ctx)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("unmatched %q at position %d", "}", i)
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String(), nil
}

// expandPlaceholder resolves the inner text of a single {...} placeholder.
func expandPlaceholder(inner string, ctx *Context) (string, error) {
	switch {
	case inner == "posargs":
		return strings.Join(ctx.Posargs, " "), nil

	case strings.HasPrefix(inner, "posargs:"):
		if len(ctx.Posargs) > 0 {
			return strings.Join(ctx.Posargs, " "), nil
		}
		return strings.TrimPrefix(inner, "posargs:"), nil

	case strings.HasPrefix(inner, "env:"):
		spec := strings.TrimPrefix(inner, "env:")
		// The variable name ends at the first colon; anything after it
		// is the fallback value and may itself contain colons.
		name, def, hasDefault := strings.Cut(spec, ":")
		if name == "" {
			return "", fmt.Errorf("empty variable name in {env:...} placeholder")
		}
		if value, ok := ctx.lookupEnv(name); ok {
			return value, nil
		}
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("environment variable %q is not set and {env:%s} has no default", name, name)

	case inner == "envname":
		return ctx.EnvName, nil

	case inner == "basedir":
		return ctx.Basedir, nil

	case inner == "workdir":
		return ctx.Workdir, nil

	default:
		return "", fmt.Errorf("unknown placeholder {%s}", inner)
	}
}

// ExpandMap substitutes placeholders in every value of a string map,
// returning a new map. Used for setenv blocks and container env blocks.
func ExpandMap(in map[string]string, ctx *Context) (map[string]string, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		expanded, err := ExpandString(v, ctx)
		if err != nil {
			return nil, fmt.Errorf("in value of %q: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}
