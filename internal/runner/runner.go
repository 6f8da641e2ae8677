// Package runner executes environments: it resolves placeholders, builds
// the command environment, runs each command sequentially, and records
// per-environment results.
//
// The runner delegates actual process execution to an Executor. The host
// executor in this package shells out with os/exec; the docker package
// provides a container-backed Executor for environments with a container
// block. Failure handling is fully delegated to the invoked tools: the
// first non-zero exit fails the environment, remaining environments still
// run, and the CLI layer turns the collected results into a process exit
// code.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/interp"
	"github.com/mmr-tortoise/runbox/internal/model"
	"github.com/mmr-tortoise/runbox/internal/workdir"
)

// baseAllowlist names the host environment variables always forwarded to
// commands, regardless of the environment's passenv patterns. Everything
// else is filtered out so runs behave the same on developer machines and
// CI.
var baseAllowlist = []string{"PATH", "HOME", "TMPDIR", "LANG", "LC_*"}

// ExecSpec describes one command execution for an Executor.
type ExecSpec struct {
	// Argv is the fully substituted command line. Never empty.
	Argv []string

	// Dir is the absolute working directory for the command.
	Dir string

	// Env is the complete environment, as KEY=VALUE pairs.
	Env []string

	// Stdout and Stderr receive the command's output streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs a single command and reports its exit code.
//
// A non-zero exit code is NOT an error: it is the tool's verdict and comes
// back as (code, nil). The error return is reserved for failures to run
// the command at all — program not found, Docker daemon unreachable,
// context cancelled.
type Executor interface {
	Run(ctx context.Context, spec ExecSpec) (int, error)
}

// HostExecutor runs commands directly on the host via os/exec.
type HostExecutor struct{}

// Run implements Executor.
func (HostExecutor) Run(ctx context.Context, spec ExecSpec) (int, error) {
	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	// A non-zero exit is the tool's result, not a runner failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

// ContainerExecutorFactory builds an Executor for a container-isolated
// environment. The runner calls it lazily, only when an environment with
// a container block is actually about to run, so host-only runs never
// touch the Docker daemon.
type ContainerExecutorFactory func(envName string, spec *model.ContainerSpec) (Executor, error)

// Runner executes resolved environments against a loaded config.
type Runner struct {
	cfg  *config.Config
	work *workdir.Manager
	log  zerolog.Logger

	// stdout and stderr are where command output is streamed. The runner
	// itself writes command traces to stderr only.
	stdout io.Writer
	stderr io.Writer

	// host executes plain environments. Replaced by a fake in tests.
	host Executor

	// containerFactory builds executors for container environments.
	// When nil, container environments error out cleanly.
	containerFactory ContainerExecutorFactory

	// lookPath resolves tool names for preflight checks.
	// Defaults to exec.LookPath.
	lookPath func(string) (string, error)

	// environ supplies the host environment for passenv filtering.
	// Defaults to os.Environ.
	environ func() []string
}

// Option customizes a Runner. Tests use options to inject fakes.
type Option func(*Runner)

// WithHostExecutor replaces the host Executor.
func WithHostExecutor(e Executor) Option {
	return func(r *Runner) { r.host = e }
}

// WithContainerFactory sets the factory used for container environments.
func WithContainerFactory(f ContainerExecutorFactory) Option {
	return func(r *Runner) { r.containerFactory = f }
}

// WithLookPath replaces the tool lookup used by preflight checks.
func WithLookPath(f func(string) (string, error)) Option {
	return func(r *Runner) { r.lookPath = f }
}

// WithEnviron replaces the host environment source.
func WithEnviron(f func() []string) Option {
	return func(r *Runner) { r.environ = f }
}

// New creates a Runner for the given config. Command output streams to
// stdout/stderr; the runner's own command traces go to stderr.
func New(cfg *config.Config, log zerolog.Logger, stdout, stderr io.Writer, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		work:     workdir.NewManager(cfg.WorkdirRoot()),
		log:      log,
		stdout:   stdout,
		stderr:   stderr,
		host:     HostExecutor{},
		lookPath: exec.LookPath,
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll executes the given concrete environments sequentially and returns
// one RunResult per environment, in order. Environments run after a failed
// one still execute; environments after a context cancellation are marked
// skipped. RunAll itself never returns an error — everything that can go
// wrong is an outcome on some result.
func (r *Runner) RunAll(ctx context.Context, envs []*model.Environment, posargs []string) []model.RunResult {
	results := make([]model.RunResult, 0, len(envs))
	for _, env := range envs {
		if ctx.Err() != nil {
			results = append(results, model.RunResult{
				Env:     env.Name,
				Outcome: model.OutcomeSkipped,
				Code:    model.ExitGeneralError,
				Message: "run cancelled",
			})
			continue
		}
		results = append(results, r.runOne(ctx, env, posargs))
	}
	return results
}

// runOne executes a single concrete environment: preflight checks first,
// then each command in order until one fails.
func (r *Runner) runOne(ctx context.Context, env *model.Environment, posargs []string) model.RunResult {
	start := time.Now()
	result := model.RunResult{Env: env.Name}

	finish := func(outcome model.Outcome, code model.ExitCode, message string) model.RunResult {
		result.Outcome = outcome
		result.Code = code
		result.Message = message
		result.Duration = time.Since(start)
		return result
	}

	workDir, err := r.work.Ensure(env.Name)
	if err != nil {
		return finish(model.OutcomeError, model.ExitGeneralError, err.Error())
	}

	ictx := &interp.Context{
		Posargs: posargs,
		EnvName: env.Name,
		Basedir: r.cfg.Basedir,
		Workdir: workDir,
	}

	// Preflight: target paths named by the environment must exist.
	for _, p := range env.Checkpaths {
		expanded, err := interp.ExpandString(p, ictx)
		if err != nil {
			return finish(model.OutcomeError, model.ExitConfigError, fmt.Sprintf("checkpaths: %v", err))
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(r.cfg.Basedir, expanded)
		}
		if _, err := os.Stat(expanded); err != nil {
			return finish(model.OutcomeError, model.ExitGeneralError,
				fmt.Sprintf("required path %s does not exist", expanded))
		}
	}

	// Preflight: every tool in the environment's extras must resolve.
	// Container environments skip this — their tools live in the image.
	if env.Container == nil {
		for _, tool := range r.cfg.ToolsFor(env) {
			if _, err := r.lookPath(tool); err != nil {
				return finish(model.OutcomeError, model.ExitToolMissing,
					fmt.Sprintf("required tool %q not found on PATH", tool))
			}
		}
	}

	executor := r.host
	if env.Container != nil {
		if r.containerFactory == nil {
			return finish(model.OutcomeError, model.ExitDockerNotRunning,
				"container execution is not available")
		}
		executor, err = r.containerFactory(env.Name, env.Container)
		if err != nil {
			return finish(model.OutcomeError, model.ExitDockerNotRunning, err.Error())
		}
	}

	cmdEnv, err := r.commandEnv(env, ictx, workDir)
	if err != nil {
		return finish(model.OutcomeError, model.ExitConfigError, fmt.Sprintf("setenv: %v", err))
	}

	cmdDir, err := r.commandDir(env, ictx)
	if err != nil {
		return finish(model.OutcomeError, model.ExitConfigError, err.Error())
	}

	for i, raw := range env.Commands {
		argv, err := interp.ExpandArgv(raw, ictx)
		if err != nil {
			return finish(model.OutcomeError, model.ExitConfigError,
				fmt.Sprintf("command %d: %v", i+1, err))
		}
		if len(argv) == 0 {
			return finish(model.OutcomeError, model.ExitConfigError,
				fmt.Sprintf("command %d expanded to an empty command line", i+1))
		}

		// Trace the command the way a shell would echo it, on stderr so
		// stdout stays clean for the tools' own output.
		fmt.Fprintf(r.stderr, "[%s] $ %s\n", env.Name, strings.Join(argv, " "))
		r.log.Debug().Str("env", env.Name).Strs("argv", argv).Str("dir", cmdDir).Msg("executing command")

		cmdStart := time.Now()
		code, err := executor.Run(ctx, ExecSpec{
			Argv:   argv,
			Dir:    cmdDir,
			Env:    cmdEnv,
			Stdout: r.stdout,
			Stderr: r.stderr,
		})
		cmdResult := model.CommandResult{
			Argv:     argv,
			ExitCode: code,
			Duration: time.Since(cmdStart),
		}
		result.Commands = append(result.Commands, cmdResult)

		if err != nil {
			if ctx.Err() != nil {
				return finish(model.OutcomeSkipped, model.ExitGeneralError, "run cancelled")
			}
			code := model.ExitGeneralError
			if errors.Is(err, exec.ErrNotFound) {
				code = model.ExitToolMissing
			}
			return finish(model.OutcomeError, code,
				fmt.Sprintf("failed to run %s: %v", argv[0], err))
		}
		if code != 0 {
			// A cancelled context kills the child, which surfaces as a
			// non-zero exit; report that as an interrupt, not a tool
			// verdict.
			if ctx.Err() != nil {
				return finish(model.OutcomeSkipped, model.ExitGeneralError, "run cancelled")
			}
			r.log.Debug().Str("env", env.Name).Int("exitCode", code).Msg("command failed")
			return finish(model.OutcomeFailed, model.ExitCommandFailed,
				fmt.Sprintf("command %q exited with code %d", argv[0], code))
		}
	}

	return finish(model.OutcomePassed, model.ExitSuccess, "")
}

// commandDir resolves the working directory for an environment's commands:
// changedir (placeholder-expanded, relative to the config directory) or
// the config directory itself.
func (r *Runner) commandDir(env *model.Environment, ictx *interp.Context) (string, error) {
	if env.Changedir == "" {
		return r.cfg.Basedir, nil
	}
	expanded, err := interp.ExpandString(env.Changedir, ictx)
	if err != nil {
		return "", fmt.Errorf("changedir: %w", err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(r.cfg.Basedir, expanded)
	}
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("changedir %s is not a directory", expanded)
	}
	return expanded, nil
}

// commandEnv builds the full environment for an environment's commands:
// the filtered host environment (base allowlist plus passenv matches),
// overlaid with the expanded setenv table and the runbox identity
// variables.
func (r *Runner) commandEnv(env *model.Environment, ictx *interp.Context, workDir string) ([]string, error) {
	patterns := append(append([]string{}, baseAllowlist...), env.Passenv...)

	merged := make(map[string]string)
	for _, kv := range r.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if matchesAny(name, patterns) {
			merged[name] = value
		}
	}

	setenv, err := interp.ExpandMap(env.Setenv, ictx)
	if err != nil {
		return nil, err
	}
	for k, v := range setenv {
		merged[k] = v
	}

	merged["RUNBOX_ENV_NAME"] = env.Name
	merged["RUNBOX_WORK_DIR"] = workDir

	// Sort for deterministic output; the OS does not care about order but
	// tests and debug logs do.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs, nil
}

// matchesAny reports whether name matches at least one of the glob
// patterns (filepath.Match syntax, as in "LC_*").
func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
