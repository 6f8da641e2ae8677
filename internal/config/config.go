// Package config handles loading, resolving, and validating the runbox
// config file.
//
// A single file declares everything runbox knows: defaults (envlist, work
// directory root), extras (named groups of required tools), and the
// environment table. Three formats are accepted, chosen by file extension:
//
//   - TOML (runbox.toml) — the primary format
//   - YAML (runbox.yaml / runbox.yml)
//   - JSONC (runbox.jsonc / runbox.json) — JSON with comments, stripped
//     with github.com/tidwall/jsonc before parsing with encoding/json
//
// All three front ends decode into the same raw schema, which is then
// normalized into a Config and validated. Callers never see the raw form.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// DefaultWorkdir is the work-directory root used when the config file
// does not set defaults.workdir. Per-environment work directories are
// created beneath it (e.g. ".runbox/test").
const DefaultWorkdir = ".runbox"

// rawConfig mirrors the on-disk schema across all three formats. Field
// tags are declared for every decoder; the struct is converted to the
// resolved Config immediately after decoding.
type rawConfig struct {
	Version  int                 `toml:"version" yaml:"version" json:"version"`
	Defaults rawDefaults         `toml:"defaults" yaml:"defaults" json:"defaults"`
	Extras   map[string][]string `toml:"extras" yaml:"extras" json:"extras"`
	Env      map[string]rawEnv   `toml:"env" yaml:"env" json:"env"`
}

// rawDefaults mirrors the [defaults] table.
type rawDefaults struct {
	Envlist []string `toml:"envlist" yaml:"envlist" json:"envlist"`
	Workdir string   `toml:"workdir" yaml:"workdir" json:"workdir"`
}

// rawEnv mirrors one [env.<name>] table. The name itself is the map key
// and is copied into model.Environment.Name during normalization.
type rawEnv struct {
	Description string            `toml:"description" yaml:"description" json:"description"`
	Extras      []string          `toml:"extras" yaml:"extras" json:"extras"`
	Commands    [][]string        `toml:"commands" yaml:"commands" json:"commands"`
	Setenv      map[string]string `toml:"setenv" yaml:"setenv" json:"setenv"`
	Passenv     []string          `toml:"passenv" yaml:"passenv" json:"passenv"`
	Changedir   string            `toml:"changedir" yaml:"changedir" json:"changedir"`
	Uses        []string          `toml:"uses" yaml:"uses" json:"uses"`
	Checkpaths  []string          `toml:"checkpaths" yaml:"checkpaths" json:"checkpaths"`
	Container   *rawContainer     `toml:"container" yaml:"container" json:"container"`
}

// rawContainer mirrors the optional container isolation block.
type rawContainer struct {
	Image   string            `toml:"image" yaml:"image" json:"image"`
	Workdir string            `toml:"workdir" yaml:"workdir" json:"workdir"`
	Env     map[string]string `toml:"env" yaml:"env" json:"env"`
}

// Defaults holds the resolved [defaults] settings.
type Defaults struct {
	// Envlist names the environments run when "runbox run" is invoked
	// without arguments.
	Envlist []string `json:"envlist,omitempty"`

	// Workdir is the work-directory root, relative to the config file's
	// directory. Never empty after loading.
	Workdir string `json:"workdir"`
}

// Config is the fully resolved configuration: the normalized environment
// table plus the metadata needed to run it (config path, base directory).
type Config struct {
	// Path is the absolute path of the loaded config file.
	Path string `json:"path"`

	// Basedir is the absolute path of the directory containing the config
	// file. All relative paths in the config resolve against it.
	Basedir string `json:"basedir"`

	// Version is the config schema version. Only version 1 exists.
	Version int `json:"version"`

	// Defaults holds the resolved defaults table.
	Defaults Defaults `json:"defaults"`

	// Extras maps extra names to the executables that group requires.
	Extras map[string][]string `json:"extras,omitempty"`

	// Envs maps environment names to their definitions.
	Envs map[string]*model.Environment `json:"envs"`
}

// Load reads and parses the config file at path, normalizes it, and
// validates it. The format is chosen by file extension.
//
// Returns a model.CLIError with ExitConfigError if the file is missing,
// unparsable, or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".jsonc", ".json":
		// Strip // and /* */ comments and trailing commas first, then
		// hand the cleaned bytes to the standard JSON decoder. This is
		// the same two-step approach used for other JSONC config files
		// in the wild (devcontainer.json, VS Code settings).
		err = json.Unmarshal(jsonc.ToJSON(data), &raw)
	default:
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("unsupported config format %q (supported: .toml, .yaml, .yml, .jsonc, .json)", filepath.Ext(path)))
	}
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse %s", path), err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to resolve config path %s", path), err)
	}

	cfg := normalize(&raw, abs)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize converts the decoded raw schema into the resolved Config,
// applying defaults. Validation happens separately so that tests can
// construct partially invalid configs directly.
func normalize(raw *rawConfig, absPath string) *Config {
	cfg := &Config{
		Path:    absPath,
		Basedir: filepath.Dir(absPath),
		Version: raw.Version,
		Defaults: Defaults{
			Envlist: raw.Defaults.Envlist,
			Workdir: raw.Defaults.Workdir,
		},
		Extras: raw.Extras,
		Envs:   make(map[string]*model.Environment, len(raw.Env)),
	}
	if cfg.Defaults.Workdir == "" {
		cfg.Defaults.Workdir = DefaultWorkdir
	}

	for name, re := range raw.Env {
		env := &model.Environment{
			Name:        name,
			Description: re.Description,
			Extras:      re.Extras,
			Commands:    re.Commands,
			Setenv:      re.Setenv,
			Passenv:     re.Passenv,
			Changedir:   re.Changedir,
			Uses:        re.Uses,
			Checkpaths:  re.Checkpaths,
		}
		if re.Container != nil {
			spec := &model.ContainerSpec{
				Image:   re.Container.Image,
				Workdir: re.Container.Workdir,
				Env:     re.Container.Env,
			}
			if spec.Workdir == "" {
				spec.Workdir = "/workspace"
			}
			env.Container = spec
		}
		cfg.Envs[name] = env
	}
	return cfg
}

// Environment returns the named environment definition.
// Returns a model.CLIError with ExitEnvNotFound for unknown names.
func (c *Config) Environment(name string) (*model.Environment, error) {
	env, ok := c.Envs[name]
	if !ok {
		return nil, model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("environment %q is not defined in %s", name, c.Path))
	}
	return env, nil
}

// EnvNames returns all environment names in sorted order, for stable
// list output.
func (c *Config) EnvNames() []string {
	names := make([]string, 0, len(c.Envs))
	for name := range c.Envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorkdirFor returns the absolute work directory path for the named
// environment: <basedir>/<defaults.workdir>/<name>.
func (c *Config) WorkdirFor(name string) string {
	root := c.Defaults.Workdir
	if !filepath.IsAbs(root) {
		root = filepath.Join(c.Basedir, root)
	}
	return filepath.Join(root, name)
}

// WorkdirRoot returns the absolute work-directory root shared by all
// environments.
func (c *Config) WorkdirRoot() string {
	root := c.Defaults.Workdir
	if !filepath.IsAbs(root) {
		root = filepath.Join(c.Basedir, root)
	}
	return root
}

// ToolsFor returns the deduplicated list of executables required by the
// environment's extras, preserving declaration order. Unknown extras are
// a validation error, so this method treats them as empty.
func (c *Config) ToolsFor(env *model.Environment) []string {
	var tools []string
	seen := make(map[string]bool)
	for _, extra := range env.Extras {
		for _, tool := range c.Extras[extra] {
			if !seen[tool] {
				seen[tool] = true
				tools = append(tools, tool)
			}
		}
	}
	return tools
}
