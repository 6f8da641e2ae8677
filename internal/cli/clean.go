// Package cli — clean.go implements the "runbox clean" command.
//
// Clean removes per-environment work directories (all of them by
// default, or just the named ones) and, with --containers, any leftover
// Docker containers carrying the runbox management label.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/docker"
	"github.com/mmr-tortoise/runbox/internal/workdir"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	// containers also removes leftover runbox-labelled Docker containers.
	containers bool
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean [environments...]",
		Short: "Remove work directories and leftover containers",
		Long: `Remove the per-environment work directories under the configured work
directory root. Without arguments the whole root is removed; with
environment names only those directories are removed.

With --containers, leftover Docker containers from interrupted
container-isolated runs are removed as well (matched by label, across
all environments unless names are given).

Examples:
  runbox clean
  runbox clean coverage
  runbox clean --containers`,

		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.containers, "containers", false, "Also remove leftover runbox containers")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, envNames []string, flags *cleanFlags) error {
	cfg, err := config.LoadFrom(configPath, ".")
	if err != nil {
		return err
	}

	manager := workdir.NewManager(cfg.WorkdirRoot())
	if len(envNames) == 0 {
		if err := manager.CleanAll(); err != nil {
			return err
		}
		log.Debug().Str("root", manager.Root()).Msg("work directory root removed")
		fmt.Printf("removed %s\n", manager.Root())
	} else {
		for _, name := range envNames {
			// Stale directories of environments no longer in the config
			// are legitimate clean targets, so the names are validated
			// but not resolved against the environment table.
			if err := manager.Clean(name); err != nil {
				return err
			}
			log.Debug().Str("env", name).Msg("work directory removed")
		}
		fmt.Printf("removed %d work director(ies) under %s\n", len(envNames), manager.Root())
	}

	if flags.containers {
		cli, err := docker.NewClient()
		if err != nil {
			return err
		}
		defer func() { _ = cli.Close() }()

		removed, err := docker.RemoveManagedContainers(ctx, cli, envNames)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d container(s)\n", removed)
	}

	return nil
}
