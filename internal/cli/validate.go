// Package cli — validate.go implements the "runbox validate" command.
//
// Validate performs the acceptance checks on the config file without
// running anything: structural validation (happens during load), the
// existence of every environment's checkpaths, and — with --tools — the
// availability of every tool declared in extras. It is meant for CI and
// for editing sessions on the config file.
package cli

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/model"
)

// validateFlags holds the flag values for the validate command.
type validateFlags struct {
	// tools additionally checks that every tool named in extras resolves
	// on PATH. Off by default: a config can be valid on a machine that
	// does not have the toolchain installed.
	tools bool
}

// NewValidateCommand creates the "validate" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewValidateCommand() *cobra.Command {
	flags := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file without running anything",
		Long: `Validate the config file: structure, environment references, aggregate
cycles, and the existence of every declared checkpath. With --tools,
also verify that every tool listed in extras is on PATH.

Exits 0 when everything checks out.

Examples:
  runbox validate
  runbox validate --tools`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.tools, "tools", false, "Also check that extras' tools are on PATH")

	return cmd
}

// validationReport is the JSON shape of validate output.
type validationReport struct {
	Config       string   `json:"config"`
	Environments int      `json:"environments"`
	Problems     []string `json:"problems,omitempty"`
}

// runValidate is the main logic function for the validate command.
func runValidate(flags *validateFlags) error {
	// Load performs structural validation; reaching this point means the
	// file parses and the environment graph is sound.
	cfg, err := config.LoadFrom(configPath, ".")
	if err != nil {
		return err
	}

	report := validationReport{
		Config:       cfg.Path,
		Environments: len(cfg.Envs),
		Problems:     collectProblems(cfg, flags.tools, exec.LookPath),
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode report", err)
		}
		fmt.Println(string(data))
	} else {
		if len(report.Problems) == 0 {
			fmt.Printf("%s: OK (%d environments)\n", report.Config, report.Environments)
		} else {
			for _, p := range report.Problems {
				fmt.Println(p)
			}
		}
	}

	if len(report.Problems) > 0 {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("%d problem(s) found", len(report.Problems)))
	}
	return nil
}

// collectProblems gathers the filesystem and tool checks that run on top
// of structural validation. The lookPath parameter exists for tests.
func collectProblems(cfg *config.Config, checkTools bool, lookPath func(string) (string, error)) []string {
	var problems []string

	// Checkpaths: every declared target path must exist.
	missing := cfg.MissingCheckpaths()
	envNames := make([]string, 0, len(missing))
	for name := range missing {
		envNames = append(envNames, name)
	}
	sort.Strings(envNames)
	for _, name := range envNames {
		for _, p := range missing[name] {
			problems = append(problems, fmt.Sprintf("env %q: required path %q does not exist", name, p))
		}
	}

	if checkTools {
		// Check each tool once even when several extras list it.
		checked := make(map[string]bool)
		groups := make([]string, 0, len(cfg.Extras))
		for group := range cfg.Extras {
			groups = append(groups, group)
		}
		sort.Strings(groups)
		for _, group := range groups {
			for _, tool := range cfg.Extras[group] {
				if checked[tool] {
					continue
				}
				checked[tool] = true
				if _, err := lookPath(tool); err != nil {
					problems = append(problems, fmt.Sprintf("extras %q: tool %q not found on PATH", group, tool))
				}
			}
		}
	}

	return problems
}
