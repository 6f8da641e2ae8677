// resolve.go implements request resolution: turning the environment names
// given on the command line (or the default envlist) into the ordered,
// deduplicated list of concrete environments to execute.
package config

import (
	"fmt"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// Requested returns the environment names this invocation should run:
// the explicit CLI arguments when given, otherwise defaults.envlist.
//
// Returns a model.CLIError when neither source names any environment —
// running nothing silently would mask a misconfigured project.
func (c *Config) Requested(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(c.Defaults.Envlist) > 0 {
		return c.Defaults.Envlist, nil
	}
	return nil, model.NewCLIError(model.ExitGeneralError,
		"no environments requested and defaults.envlist is empty; run \"runbox list\" to see what is available")
}

// Expand resolves aggregate environments depth-first and returns the
// ordered list of concrete (command-bearing) environments to run.
//
// Each environment appears at most once, keeping its earliest position:
// requesting "lint style" runs style once, inside the lint expansion.
// Unknown names yield a model.CLIError with ExitEnvNotFound. Cycles are
// rejected during Validate, but Expand re-checks its own path so that a
// hand-built Config cannot loop it.
func (c *Config) Expand(names []string) ([]*model.Environment, error) {
	var ordered []*model.Environment
	seen := make(map[string]bool)
	onPath := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		if onPath[name] {
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("aggregate environment cycle involving %q", name))
		}

		env, err := c.Environment(name)
		if err != nil {
			return err
		}

		if env.IsAggregate() {
			onPath[name] = true
			for _, member := range env.Uses {
				if err := visit(member); err != nil {
					return err
				}
			}
			onPath[name] = false
			seen[name] = true
			return nil
		}

		seen[name] = true
		ordered = append(ordered, env)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
