package docker

import (
	"fmt"
	"strings"
	"time"
)

// Label key constants define the Docker labels applied to every container
// managed by env-exec. Labels are the only persistence mechanism: an
// environment's metadata lives entirely on its container and is
// reconstructed from a Docker API query, never cached or written to disk.
//
// The "env-exec." prefix namespaces the keys away from labels set by other
// tooling (Compose, devcontainers, etc.).
const (
	// LabelPrefix is the common prefix for all env-exec labels.
	LabelPrefix = "env-exec."

	// LabelManagedBy identifies containers managed by env-exec and is the
	// primary filter for discovery. Value is always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the environment name.
	LabelName = LabelPrefix + "name"

	// LabelImage stores the base image the environment was created from.
	LabelImage = LabelPrefix + "image"

	// LabelEphemeral marks environments that are removed on session exit
	// ("true"/"false").
	LabelEphemeral = LabelPrefix + "ephemeral"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value of the LabelManagedBy label.
const ManagedByValue = "env-exec"

// EnvInfo is environment metadata reconstructed from container labels.
type EnvInfo struct {
	// Name is the environment name.
	Name string `json:"name"`

	// Image is the base image the environment container runs.
	Image string `json:"image"`

	// Ephemeral reports whether the environment is removed on session exit.
	Ephemeral bool `json:"ephemeral"`

	// Status is the container's runtime state ("running", "exited", ...).
	// Filled from the Docker API at query time, not from labels.
	Status string `json:"status,omitempty"`

	// CreatedAt is when the environment was created.
	CreatedAt time.Time `json:"createdAt"`
}

// BuildLabels constructs the label map applied to an environment's container
// at creation. ParseLabels is its inverse.
func BuildLabels(name, image string, ephemeral bool, createdAt time.Time) map[string]string {
	ephemeralValue := "false"
	if ephemeral {
		ephemeralValue = "true"
	}
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      name,
		LabelImage:     image,
		LabelEphemeral: ephemeralValue,
		// UTC keeps timestamps comparable across hosts in any timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs environment metadata from a container's labels.
//
// The managed-by and name labels are required; a container without them is
// not an env-exec environment and parsing fails. The remaining labels
// degrade gracefully — a missing or malformed timestamp yields a zero time
// rather than an error, so one damaged label cannot hide an environment
// from listing.
func ParseLabels(labels map[string]string) (*EnvInfo, error) {
	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf("container is not managed by env-exec (label %s=%q)",
			LabelManagedBy, labels[LabelManagedBy])
	}

	name := labels[LabelName]
	if name == "" {
		return nil, fmt.Errorf("missing required label %s", LabelName)
	}

	info := &EnvInfo{
		Name:      name,
		Image:     labels[LabelImage],
		Ephemeral: strings.EqualFold(labels[LabelEphemeral], "true"),
	}

	if raw := labels[LabelCreatedAt]; raw != "" {
		if createdAt, err := time.Parse(time.RFC3339, raw); err == nil {
			info.CreatedAt = createdAt
		}
	}

	return info, nil
}
