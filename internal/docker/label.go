// label.go defines the Docker label schema applied to every container
// runbox creates. The labels make runbox containers discoverable: a
// crashed run can leave containers behind, and "runbox clean
// --containers" finds them purely by label filter, with no state file.
package docker

import (
	"time"
)

const (
	// LabelPrefix namespaces all runbox labels to avoid collisions with
	// labels set by Compose, IDEs, or other tooling.
	LabelPrefix = "runbox."

	// LabelManagedBy identifies containers created by runbox.
	// Key: "runbox.managed-by", value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelEnv stores the environment name the container ran for.
	LabelEnv = LabelPrefix + "env"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value of the LabelManagedBy label.
const ManagedByValue = "runbox"

// BuildLabels constructs the label map for a container executing commands
// of the named environment.
func BuildLabels(envName string, now time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelEnv:       envName,
		LabelCreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// IsManaged reports whether a container label map identifies a container
// created by runbox.
func IsManaged(labels map[string]string) bool {
	return labels[LabelManagedBy] == ManagedByValue
}

// EnvOf extracts the environment name from a container label map, or ""
// when the label is absent.
func EnvOf(labels map[string]string) string {
	return labels[LabelEnv]
}
