// Package cli — list.go implements the "runbox list" command.
//
// The list command displays the environments declared in the config file
// as a text table or JSON array, depending on the --json flag. It is
// purely informational and never touches the Docker daemon or runs
// anything.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/model"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared environments",
		Long: `List every environment declared in the config file with its kind
(commands, aggregate, or container) and description. Environments in
defaults.envlist are marked with an asterisk.

Examples:
  runbox list
  runbox list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

// listEntry is the JSON shape of one environment in list output.
type listEntry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Default     bool   `json:"default"`
	Commands    int    `json:"commands"`
	Description string `json:"description,omitempty"`
}

// runList is the main logic function for the list command.
func runList() error {
	cfg, err := config.LoadFrom(configPath, ".")
	if err != nil {
		return err
	}

	entries := buildListEntries(cfg)

	if IsJSONOutput() {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode environment list", err)
		}
		fmt.Println(string(data))
		return nil
	}

	// tabwriter aligns the columns without manual width bookkeeping.
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tCOMMANDS\tDESCRIPTION")
	for _, e := range entries {
		name := e.Name
		if e.Default {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, e.Kind, e.Commands, e.Description)
	}
	return w.Flush()
}

// buildListEntries converts the config's environment table into sorted
// list entries. Split out from runList so it can be unit tested without
// capturing stdout.
func buildListEntries(cfg *config.Config) []listEntry {
	defaults := make(map[string]bool, len(cfg.Defaults.Envlist))
	for _, name := range cfg.Defaults.Envlist {
		defaults[name] = true
	}

	names := cfg.EnvNames()
	entries := make([]listEntry, 0, len(names))
	for _, name := range names {
		env := cfg.Envs[name]
		entries = append(entries, listEntry{
			Name:        name,
			Kind:        env.Kind(),
			Default:     defaults[name],
			Commands:    commandCount(env),
			Description: env.Description,
		})
	}
	return entries
}

// commandCount returns the number of commands an environment runs:
// its own command count, or the member count for aggregates.
func commandCount(env *model.Environment) int {
	if env.IsAggregate() {
		return len(env.Uses)
	}
	return len(env.Commands)
}

// FormatUsesList renders an aggregate's member list for display,
// e.g. "style, docslint, docstyle".
func FormatUsesList(uses []string) string {
	if len(uses) == 0 {
		return "-"
	}
	return strings.Join(uses, ", ")
}
