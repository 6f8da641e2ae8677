package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Outcome represents the terminal state of a single environment run.
// Every requested environment ends in exactly one of these states:
//
//	Passed  — all commands exited zero
//	Failed  — a command exited non-zero (remaining commands were skipped)
//	Error   — the environment could not be started (missing tool, bad path,
//	          Docker unavailable, substitution error)
//	Skipped — an interrupt cancelled the run before this environment started
type Outcome string

const (
	// OutcomePassed indicates every command in the environment exited zero.
	OutcomePassed Outcome = "passed"

	// OutcomeFailed indicates a command exited non-zero. Commands after the
	// failing one were not run.
	OutcomeFailed Outcome = "failed"

	// OutcomeError indicates the environment never reached its commands:
	// a preflight check failed or the execution backend was unavailable.
	OutcomeError Outcome = "error"

	// OutcomeSkipped indicates the run was cancelled before this
	// environment started (e.g. Ctrl-C during an earlier environment).
	OutcomeSkipped Outcome = "skipped"
)

// String returns the string representation of Outcome.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI summaries and logging.
func (o Outcome) String() string {
	return string(o)
}

// IsValid checks whether the Outcome value is one of the predefined states.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomeError, OutcomeSkipped:
		return true
	default:
		return false
	}
}

// ParseOutcome converts a string to an Outcome.
// Returns an error if the string does not match any valid outcome.
func ParseOutcome(s string) (Outcome, error) {
	outcome := Outcome(strings.ToLower(s))
	if !outcome.IsValid() {
		return "", fmt.Errorf("invalid outcome: %q (valid: passed, failed, error, skipped)", s)
	}
	return outcome, nil
}

// Environment is a named, isolated command-execution profile: a fixed
// command sequence paired with the extras (tool groups), environment
// variables, and working-directory settings it runs under. This is the
// primary aggregate entity in the domain.
//
// Exactly one of Commands or Uses is populated. An environment with Uses
// set is an aggregate: running it runs the referenced environments in
// order instead of commands of its own.
type Environment struct {
	// Name is the unique identifier for this environment.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// Description is an optional human-readable summary shown by
	// "runbox list".
	Description string `json:"description,omitempty"`

	// Extras lists names of extras (declared tool groups) this environment
	// requires. Every tool in every listed group must be resolvable before
	// the environment runs.
	Extras []string `json:"extras,omitempty"`

	// Commands holds the argv lists to execute, in order. Each inner slice
	// is one command: element 0 is the program, the rest are arguments.
	Commands [][]string `json:"commands,omitempty"`

	// Setenv holds additional environment variables set for every command.
	Setenv map[string]string `json:"setenv,omitempty"`

	// Passenv holds glob patterns of host environment variables forwarded
	// to commands. A small base allowlist (PATH, HOME, TMPDIR, LANG, LC_*)
	// is always forwarded regardless of this list.
	Passenv []string `json:"passenv,omitempty"`

	// Changedir is the working directory for commands, relative to the
	// directory containing the config file. Empty means the config
	// directory itself.
	Changedir string `json:"changedir,omitempty"`

	// Uses lists environment names to run in place of own commands,
	// making this an aggregate environment.
	Uses []string `json:"uses,omitempty"`

	// Checkpaths lists paths (relative to the config directory) that must
	// exist before the environment runs.
	Checkpaths []string `json:"checkpaths,omitempty"`

	// Container, when non-nil, switches execution to container isolation:
	// commands run inside a one-shot Docker container instead of directly
	// on the host.
	Container *ContainerSpec `json:"container,omitempty"`
}

// IsAggregate reports whether the environment delegates to other
// environments via Uses rather than running commands of its own.
func (e *Environment) IsAggregate() bool {
	return len(e.Uses) > 0
}

// Kind returns a short classification used in list output:
// "aggregate", "container", or "commands".
func (e *Environment) Kind() string {
	switch {
	case e.IsAggregate():
		return "aggregate"
	case e.Container != nil:
		return "container"
	default:
		return "commands"
	}
}

// ContainerSpec describes the container isolation settings of an
// environment. The project root is bind-mounted at Workdir and each
// command runs in its own one-shot container created from Image.
type ContainerSpec struct {
	// Image is the container image reference (e.g. "golang:1.25").
	Image string `json:"image"`

	// Workdir is the mount point of the project root inside the container
	// and the working directory for commands. Defaults to "/workspace".
	Workdir string `json:"workdir,omitempty"`

	// Env holds additional environment variables set inside the container.
	Env map[string]string `json:"env,omitempty"`
}

// nameRegex validates environment names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid environment name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// CommandResult records the execution of a single command within an
// environment run.
type CommandResult struct {
	// Argv is the fully substituted command line that was executed.
	Argv []string `json:"argv"`

	// ExitCode is the command's process exit code. Zero means success.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time the command took.
	Duration time.Duration `json:"duration"`
}

// RunResult records the execution of one environment. The runner produces
// one RunResult per requested environment, in run order, and the CLI layer
// renders them as the end-of-run summary.
type RunResult struct {
	// Env is the environment name.
	Env string `json:"env"`

	// Outcome is the terminal state of the run.
	Outcome Outcome `json:"outcome"`

	// Commands holds per-command results in execution order. Commands that
	// were never reached (after a failure) do not appear.
	Commands []CommandResult `json:"commands,omitempty"`

	// Duration is the wall-clock time for the whole environment, including
	// preflight checks.
	Duration time.Duration `json:"duration"`

	// Code is the exit code this result contributes to the process exit
	// status: ExitSuccess for passed environments, a specific failure
	// code otherwise. The CLI reports the first non-zero code across all
	// results.
	Code ExitCode `json:"code"`

	// Message carries the human-readable reason for an error or failure.
	// Empty for passed environments.
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the environment run passed.
func (r *RunResult) Succeeded() bool {
	return r.Outcome == OutcomePassed
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the config file was not found or is invalid.
	ExitConfigError ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible
	// while a container-isolated environment was requested.
	ExitDockerNotRunning ExitCode = 3

	// ExitToolMissing indicates a tool required by an environment's extras
	// could not be found on PATH.
	ExitToolMissing ExitCode = 4

	// ExitCommandFailed indicates at least one environment's command
	// exited non-zero.
	ExitCommandFailed ExitCode = 5

	// ExitEnvNotFound indicates the specified environment does not exist
	// in the config file.
	ExitEnvNotFound ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
