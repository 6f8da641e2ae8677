// Package logging configures the zerolog logger shared by the runbox CLI.
//
// runbox keeps stdout reserved for command output and structured results;
// all of its own chatter goes to stderr through this logger. The default
// level is warn so a normal run only shows the commands being executed
// and the summary — --verbose drops the level to debug for tracing config
// discovery, environment resolution, and container lifecycle events.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console-format zerolog logger writing to w at the given
// level. The logger is returned rather than installed globally so tests
// can capture output with a buffer.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "runbox").Logger()
}

// LevelFor maps the CLI verbosity flags to a zerolog level.
// Precedence: quiet beats verbose when both are set.
func LevelFor(verbose, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.ErrorLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.WarnLevel
	}
}
