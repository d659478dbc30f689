package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/Wytamma/env-exec/internal/runner"
)

// ListEnvironments returns the names of all environments known to the given
// manager binary ("conda" or "mamba"), derived from the basename of each
// path in `conda env list --json`. Used by `envx list`.
func ListEnvironments(ctx context.Context, run runner.Runner, binary string) ([]string, error) {
	if run == nil {
		run = runner.New()
	}

	result, err := run.Run(ctx, runner.Invocation{
		Args:    []string{binary, "env", "list", "--json"},
		Capture: true,
	})
	if err != nil {
		return nil, err
	}

	var list envList
	if err := json.Unmarshal([]byte(result.Stdout), &list); err != nil {
		return nil, fmt.Errorf("failed to parse %s env list output: %w", binary, err)
	}

	names := make([]string, 0, len(list.Envs))
	for _, envPath := range list.Envs {
		names = append(names, path.Base(envPath))
	}
	return names, nil
}
