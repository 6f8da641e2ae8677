// locate.go implements config file discovery: walking up from the current
// directory until a recognized config filename is found, mirroring how
// task runners locate their manifest from any subdirectory of a project.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// candidateNames lists the recognized config filenames in priority order.
// Within a single directory the first existing name wins, so a project
// that carries both runbox.toml and runbox.yaml uses the TOML file.
var candidateNames = []string{
	"runbox.toml",
	"runbox.yaml",
	"runbox.yml",
	"runbox.jsonc",
	"runbox.json",
}

// Locate searches for a config file starting at startDir and walking up
// parent directories to the filesystem root. It returns the absolute path
// of the first match.
//
// Returns a model.CLIError with ExitConfigError when no config file is
// found anywhere on the path to the root.
func Locate(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to resolve directory %s", startDir), err)
	}

	for {
		for _, name := range candidateNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without a hit.
			return "", model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("no runbox config file found in %s or any parent directory (looked for %s)",
					startDir, candidateNames[0]))
		}
		dir = parent
	}
}

// LoadFrom loads the config for the current invocation. When explicitPath
// is non-empty (the --config flag) it is loaded directly; otherwise the
// file is discovered by walking up from workingDir.
func LoadFrom(explicitPath, workingDir string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}
	path, err := Locate(workingDir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}
