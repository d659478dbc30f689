// Package envfile loads environment specifications from files.
//
// Two formats are supported, dispatched on file extension:
//
//   - environment.yml / *.yaml — the conda environment file schema
//     (name, channels, dependencies), parsed with gopkg.in/yaml.v3.
//   - *.json / *.jsonc — an env-exec spec document with the same fields.
//     JSONC comments and trailing commas are stripped with
//     github.com/tidwall/jsonc before parsing, since hand-maintained spec
//     files frequently carry comments.
//
// A loaded spec supplies defaults; values given explicitly on the command
// line take precedence when the two are merged.
package envfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/Wytamma/env-exec/internal/model"
)

// Spec is an environment specification loaded from a file.
type Spec struct {
	// Name is the environment name. Optional — an unnamed spec produces
	// an ephemeral environment.
	Name string `json:"name" yaml:"name"`

	// Channels lists conda channels to search for packages.
	Channels []string `json:"channels" yaml:"channels"`

	// Dependencies is the requested dependency set, parsed from the
	// file's dependency strings.
	Dependencies []model.Dependency `json:"dependencies" yaml:"-"`
}

// rawSpec is the on-disk shape shared by both formats. Dependencies stay
// strings here and are parsed into structured form by Load.
//
// The conda environment.yml schema allows nested mappings inside the
// dependencies list (e.g. a "pip:" section); those are not representable as
// plain dependency strings and are rejected with a clear error rather than
// silently dropped.
type rawSpec struct {
	Name         string   `json:"name" yaml:"name"`
	Channels     []string `json:"channels" yaml:"channels"`
	Dependencies []any    `json:"dependencies" yaml:"dependencies"`
}

// Load reads and parses an environment spec file. The format is chosen by
// extension: .yml/.yaml parse as YAML, .json/.jsonc as JSONC.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file %s: %w", path, err)
	}

	var raw rawSpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips // and /* */ comments plus trailing commas,
		// leaving standard JSON for encoding/json.
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported environment file extension %q (want .yml, .yaml, .json, or .jsonc)", ext)
	}

	spec := &Spec{Name: raw.Name, Channels: raw.Channels}

	for _, entry := range raw.Dependencies {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("unsupported dependency entry %v in %s: only plain package specs are supported", entry, path)
		}
		dep, err := model.ParseDependency(s)
		if err != nil {
			return nil, fmt.Errorf("invalid dependency in %s: %w", path, err)
		}
		spec.Dependencies = append(spec.Dependencies, dep)
	}

	return spec, nil
}
