// Package cli — run.go implements the "runbox run" command.
//
// The run command loads the config, resolves the requested environments
// (expanding aggregates), executes them sequentially, prints the summary,
// and exits non-zero when any environment did not pass. Arguments after
// "--" are passed through to commands via the {posargs} placeholder.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/docker"
	"github.com/mmr-tortoise/runbox/internal/model"
	"github.com/mmr-tortoise/runbox/internal/runner"
)

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [environments...] [-- args...]",
		Short: "Run one or more environments",
		Long: `Run the named environments in order, or defaults.envlist when none
are given. Aggregate environments expand to their members; each
environment runs at most once per invocation.

Arguments after "--" are substituted for {posargs} in commands.

Examples:
  runbox run
  runbox run lint
  runbox run test -- -run TestConfig -count=1
  runbox run style coverage --json`,

		// Environment names are free-form here; unknown names surface as
		// ExitEnvNotFound from config resolution with a proper message.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			// Split environment names from pass-through args. Cobra keeps
			// everything in args but records where "--" sat.
			envArgs, posargs := args, []string(nil)
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				envArgs, posargs = args[:at], args[at:]
			}
			return runRun(cmd.Context(), envArgs, posargs)
		},
	}

	return cmd
}

// runRun is the main logic function for the run command.
func runRun(ctx context.Context, envArgs, posargs []string) error {
	// Interrupts cancel the context: the current command is killed and
	// the remaining environments are reported as skipped.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFrom(configPath, ".")
	if err != nil {
		return err
	}
	log.Debug().Str("config", cfg.Path).Msg("config loaded")

	requested, err := cfg.Requested(envArgs)
	if err != nil {
		return err
	}
	envs, err := cfg.Expand(requested)
	if err != nil {
		return err
	}
	log.Debug().Strs("requested", requested).Int("resolved", len(envs)).Msg("environments resolved")

	// The Docker client is created lazily, only if a container
	// environment actually runs, and shared across all of them.
	var dockerCli *docker.Client
	defer func() {
		if dockerCli != nil {
			_ = dockerCli.Close()
		}
	}()
	factory := func(envName string, spec *model.ContainerSpec) (runner.Executor, error) {
		if dockerCli == nil {
			cli, err := docker.NewClient()
			if err != nil {
				return nil, err
			}
			dockerCli = cli
		}
		log.Debug().Str("env", envName).Str("image", spec.Image).Msg("using container isolation")
		return docker.NewExecutor(ctx, dockerCli, envName, cfg.Basedir, spec)
	}

	r := runner.New(cfg, log, os.Stdout, os.Stderr, runner.WithContainerFactory(factory))
	results := r.RunAll(ctx, envs, posargs)

	if IsJSONOutput() {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode results", err)
		}
		fmt.Println(string(data))
	} else {
		runner.WriteSummary(os.Stdout, results)
	}

	if code := runner.ExitCodeFor(results); code != model.ExitSuccess {
		return model.NewCLIError(code, failureMessage(results))
	}
	return nil
}

// failureMessage builds the one-line error shown after a failed run.
// The per-environment detail is already in the summary, so this only
// counts.
func failureMessage(results []model.RunResult) string {
	failed := 0
	for i := range results {
		if !results[i].Succeeded() {
			failed++
		}
	}
	return fmt.Sprintf("%d of %d environment(s) did not pass", failed, len(results))
}
