// validate.go implements structural validation of a loaded Config.
//
// Validation runs automatically at the end of Load, so every Config the
// rest of the application sees is already well-formed. The "runbox
// validate" command additionally performs the filesystem-level acceptance
// checks (checkpaths existence) via MissingCheckpaths, which are kept out
// of Load so that commands like "list" work on machines where the checked
// paths do not exist yet.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// Validate checks the structural integrity of the configuration:
//
//   - version must be 1
//   - at least one environment must be defined
//   - environment names follow the naming rules
//   - commands and uses are mutually exclusive, and one must be present
//   - every command argv is non-empty with a non-empty program word
//   - extras references point at declared extras groups
//   - uses references point at defined environments, without cycles
//   - container blocks declare an image and only appear on command
//     environments (an aggregate has nothing to isolate)
//   - defaults.envlist entries point at defined environments
//
// Returns a model.CLIError with ExitConfigError describing the first
// problem found.
func (c *Config) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("%s: %s", c.Path, fmt.Sprintf(format, args...)))
	}

	if c.Version != 1 {
		return fail("unsupported config version %d (this runbox understands version 1)", c.Version)
	}
	if len(c.Envs) == 0 {
		return fail("no environments defined (add at least one [env.<name>] table)")
	}

	for extra, tools := range c.Extras {
		if strings.TrimSpace(extra) == "" {
			return fail("extras group with empty name")
		}
		if len(tools) == 0 {
			return fail("extras group %q lists no tools", extra)
		}
		for _, tool := range tools {
			if strings.TrimSpace(tool) == "" {
				return fail("extras group %q contains an empty tool name", extra)
			}
		}
	}

	for name, env := range c.Envs {
		if err := model.ValidateName(name); err != nil {
			return fail("%v", err)
		}

		hasCommands := len(env.Commands) > 0
		hasUses := len(env.Uses) > 0
		switch {
		case hasCommands && hasUses:
			return fail("environment %q sets both commands and uses; pick one", name)
		case !hasCommands && !hasUses:
			return fail("environment %q has neither commands nor uses; it would do nothing", name)
		}

		for i, argv := range env.Commands {
			if len(argv) == 0 {
				return fail("environment %q: command %d is empty", name, i+1)
			}
			if strings.TrimSpace(argv[0]) == "" {
				return fail("environment %q: command %d has an empty program name", name, i+1)
			}
		}

		for _, extra := range env.Extras {
			if _, ok := c.Extras[extra]; !ok {
				return fail("environment %q references undeclared extras group %q", name, extra)
			}
		}

		for _, member := range env.Uses {
			if _, ok := c.Envs[member]; !ok {
				return fail("environment %q uses undefined environment %q", name, member)
			}
		}

		if env.Container != nil {
			if hasUses {
				return fail("environment %q is an aggregate and cannot set a container block", name)
			}
			if strings.TrimSpace(env.Container.Image) == "" {
				return fail("environment %q: container block requires an image", name)
			}
		}
	}

	for _, name := range c.Defaults.Envlist {
		if _, ok := c.Envs[name]; !ok {
			return fail("defaults.envlist references undefined environment %q", name)
		}
	}

	if err := c.checkUsesCycles(); err != nil {
		return err
	}
	return nil
}

// checkUsesCycles walks the uses graph depth-first and reports the first
// cycle found. Environment names are visited in sorted order so the error
// message is deterministic.
func (c *Config) checkUsesCycles() error {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(c.Envs))

	var visit func(name string, trail []string) error
	visit = func(name string, trail []string) error {
		switch state[name] {
		case done:
			return nil
		case inStack:
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("%s: aggregate environment cycle: %s -> %s",
					c.Path, strings.Join(trail, " -> "), name))
		}
		state[name] = inStack
		for _, member := range c.Envs[name].Uses {
			if err := visit(member, append(trail, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range c.EnvNames() {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// MissingCheckpaths performs the filesystem acceptance check: for every
// environment, each checkpaths entry must exist relative to the config
// directory. The result maps environment names to their missing paths;
// an empty map means all checks passed.
func (c *Config) MissingCheckpaths() map[string][]string {
	missing := make(map[string][]string)
	for name, env := range c.Envs {
		for _, p := range env.Checkpaths {
			resolved := p
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(c.Basedir, p)
			}
			if _, err := os.Stat(resolved); err != nil {
				missing[name] = append(missing[name], p)
			}
		}
	}
	return missing
}
