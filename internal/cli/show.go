// Package cli — show.go implements the "runbox show" command.
//
// Show renders the fully resolved view of one environment: commands after
// placeholder substitution (with empty posargs), the tools its extras
// require, the work directory it will get, and its container settings.
// This is the debugging companion to "run" — what you see here is what
// the runner will execute.
package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/runbox/internal/config"
	"github.com/mmr-tortoise/runbox/internal/interp"
	"github.com/mmr-tortoise/runbox/internal/model"
)

// NewShowCommand creates the "show" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ENVIRONMENT",
		Short: "Show the resolved definition of an environment",
		Long: `Show one environment after resolution: substituted commands, required
tools, environment variables, and isolation settings.

Posargs expand as empty, so a {posargs} word disappears and a
{posargs:DEFAULT} word shows its default.

Examples:
  runbox show test
  runbox show docker-test --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0])
		},
	}
}

// shownEnv is the JSON shape of show output.
type shownEnv struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Kind        string               `json:"kind"`
	Uses        []string             `json:"uses,omitempty"`
	Commands    [][]string           `json:"commands,omitempty"`
	Tools       []string             `json:"tools,omitempty"`
	Setenv      map[string]string    `json:"setenv,omitempty"`
	Passenv     []string             `json:"passenv,omitempty"`
	Changedir   string               `json:"changedir,omitempty"`
	Checkpaths  []string             `json:"checkpaths,omitempty"`
	Workdir     string               `json:"workdir"`
	Container   *model.ContainerSpec `json:"container,omitempty"`
}

// runShow is the main logic function for the show command.
func runShow(name string) error {
	cfg, err := config.LoadFrom(configPath, ".")
	if err != nil {
		return err
	}

	env, err := cfg.Environment(name)
	if err != nil {
		return err
	}

	resolved, err := resolveShownEnv(cfg, env)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode environment", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printShownEnv(resolved)
	return nil
}

// resolveShownEnv builds the resolved view: placeholder-substituted
// commands (empty posargs) plus the derived tool list and work directory.
func resolveShownEnv(cfg *config.Config, env *model.Environment) (*shownEnv, error) {
	workdir := cfg.WorkdirFor(env.Name)
	ictx := &interp.Context{
		EnvName: env.Name,
		Basedir: cfg.Basedir,
		Workdir: workdir,
	}

	commands := make([][]string, 0, len(env.Commands))
	for i, raw := range env.Commands {
		argv, err := interp.ExpandArgv(raw, ictx)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("environment %q: command %d", env.Name, i+1), err)
		}
		commands = append(commands, argv)
	}

	setenv, err := interp.ExpandMap(env.Setenv, ictx)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("environment %q: setenv", env.Name), err)
	}

	return &shownEnv{
		Name:        env.Name,
		Description: env.Description,
		Kind:        env.Kind(),
		Uses:        env.Uses,
		Commands:    commands,
		Tools:       cfg.ToolsFor(env),
		Setenv:      setenv,
		Passenv:     env.Passenv,
		Changedir:   env.Changedir,
		Checkpaths:  env.Checkpaths,
		Workdir:     workdir,
		Container:   env.Container,
	}, nil
}

// printShownEnv renders the text form of show output.
func printShownEnv(e *shownEnv) {
	fmt.Printf("name:        %s\n", e.Name)
	if e.Description != "" {
		fmt.Printf("description: %s\n", e.Description)
	}
	fmt.Printf("kind:        %s\n", e.Kind)
	if len(e.Uses) > 0 {
		fmt.Printf("uses:        %s\n", FormatUsesList(e.Uses))
	}
	fmt.Printf("workdir:     %s\n", e.Workdir)
	if e.Changedir != "" {
		fmt.Printf("changedir:   %s\n", e.Changedir)
	}
	if len(e.Tools) > 0 {
		fmt.Printf("tools:       %s\n", strings.Join(e.Tools, ", "))
	}
	if len(e.Passenv) > 0 {
		fmt.Printf("passenv:     %s\n", strings.Join(e.Passenv, ", "))
	}
	setenvKeys := make([]string, 0, len(e.Setenv))
	for k := range e.Setenv {
		setenvKeys = append(setenvKeys, k)
	}
	sort.Strings(setenvKeys)
	for _, k := range setenvKeys {
		fmt.Printf("setenv:      %s=%s\n", k, e.Setenv[k])
	}
	if len(e.Checkpaths) > 0 {
		fmt.Printf("checkpaths:  %s\n", strings.Join(e.Checkpaths, ", "))
	}
	if e.Container != nil {
		fmt.Printf("container:   %s (workdir %s)\n", e.Container.Image, e.Container.Workdir)
	}
	for _, argv := range e.Commands {
		fmt.Printf("command:     %s\n", strings.Join(argv, " "))
	}
}
