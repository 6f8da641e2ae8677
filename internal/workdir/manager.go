// Package workdir manages the per-environment work directories that live
// under the config's work-directory root (".runbox" by default).
//
// Each environment gets its own directory, exposed to commands via the
// {workdir} placeholder and the RUNBOX_WORK_DIR variable. The directories
// are scratch space: commands drop coverage files, reports, and caches
// there, and "runbox clean" deletes them wholesale.
//
// Design decisions:
//   - The Manager operates on one root and receives environment names as
//     parameters; it never reads the config itself, keeping this package
//     free of config dependencies.
//   - A marker file is written into the root the first time it is created
//     so Clean can refuse to delete a directory runbox does not own
//     (e.g. a typo'd defaults.workdir pointing at "src").
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// markerName is the file written into the work-directory root to mark it
// as runbox-owned. Clean refuses to touch roots without it.
const markerName = ".runbox-root"

// Manager provides work-directory lifecycle operations beneath a single
// root directory.
type Manager struct {
	// root is the absolute work-directory root (e.g. /project/.runbox).
	root string
}

// NewManager creates a Manager for the given absolute root directory.
// The directory itself is created lazily by Ensure.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the work-directory root this manager operates on.
func (m *Manager) Root() string {
	return m.root
}

// Ensure creates the work directory for the named environment (and the
// root plus its ownership marker, when missing) and returns its absolute
// path.
func (m *Manager) Ensure(envName string) (string, error) {
	if err := model.ValidateName(envName); err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory root %s: %w", m.root, err)
	}

	marker := filepath.Join(m.root, markerName)
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		if err := os.WriteFile(marker, []byte("managed by runbox; safe to delete\n"), 0o644); err != nil {
			return "", fmt.Errorf("failed to write marker file %s: %w", marker, err)
		}
	}

	dir := filepath.Join(m.root, envName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory %s: %w", dir, err)
	}
	return dir, nil
}

// List returns the names of environments that currently have a work
// directory, in sorted order. A missing root is not an error — it simply
// means nothing has run yet.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read work directory root %s: %w", m.root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clean removes the work directory of the named environment. Removing a
// directory that does not exist is not an error.
func (m *Manager) Clean(envName string) error {
	if err := model.ValidateName(envName); err != nil {
		return err
	}
	if err := m.checkOwnership(); err != nil {
		return err
	}
	dir := filepath.Join(m.root, envName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove work directory %s: %w", dir, err)
	}
	return nil
}

// CleanAll removes the entire work-directory root, marker included.
// A missing root is not an error.
func (m *Manager) CleanAll() error {
	if _, err := os.Stat(m.root); os.IsNotExist(err) {
		return nil
	}
	if err := m.checkOwnership(); err != nil {
		return err
	}
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to remove work directory root %s: %w", m.root, err)
	}
	return nil
}

// checkOwnership verifies the root carries the runbox marker file before
// any destructive operation. This guards against a misconfigured
// defaults.workdir pointing Clean at a real source directory.
func (m *Manager) checkOwnership() error {
	if _, err := os.Stat(m.root); os.IsNotExist(err) {
		return nil
	}
	marker := filepath.Join(m.root, markerName)
	if _, err := os.Stat(marker); err != nil {
		return fmt.Errorf("refusing to clean %s: missing %s marker (directory was not created by runbox)", m.root, markerName)
	}
	return nil
}
