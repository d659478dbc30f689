// Package docker implements the environment lifecycle contract on top of
// the Docker Engine.
//
// A docker-backed environment is a long-lived labeled container started from
// a Python base image. Lifecycle operations use the Docker Engine SDK
// (container list/create/start/remove with label filters); commands run
// inside the environment via `docker exec`, and Python dependencies are
// managed with pip inside the container.
package docker

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/Wytamma/env-exec/internal/model"
)

// pingTimeout bounds the daemon liveness probe. Docker Desktop on macOS can
// be slow to answer the first request, so the timeout is generous.
const pingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It handles socket detection
// across platforms and translates connectivity failures into the
// ManagerNotFoundError the rest of env-exec expects.
type Client struct {
	// inner is the underlying SDK client. Wrapped rather than embedded to
	// keep the exposed API surface down to what the backend needs.
	inner *client.Client
}

// NewClient creates a Docker client. The DOCKER_HOST environment variable
// wins when set; otherwise well-known socket locations for the current
// platform are probed and the first existing one is used.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, &model.ManagerNotFoundError{Manager: "docker", Err: err}
		}
		host = detected
	}

	// API version negotiation keeps the client compatible with whatever
	// daemon version is running instead of pinning one API version.
	inner, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, &model.ManagerNotFoundError{Manager: "docker", Err: err}
	}

	return &Client{inner: inner}, nil
}

// detectHost returns the Docker connection string for the current platform.
// Socket existence is checked with os.Stat rather than by dialing — a fast
// filesystem check; actual daemon liveness is Ping's job.
func detectHost() (string, error) {
	if runtime.GOOS == "windows" {
		// Docker Desktop on Windows always exposes this named pipe.
		return "npipe:////./pipe/docker_engine", nil
	}

	candidates := []string{"/var/run/docker.sock"}
	if home, err := os.UserHomeDir(); err == nil {
		// Newer Docker Desktop versions on macOS place the socket under
		// the user's home directory instead of /var/run.
		candidates = append(candidates, home+"/.docker/run/docker.sock")
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("docker socket not found at any of %v — is Docker running?", candidates)
}

// Ping verifies the daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return &model.ManagerNotFoundError{Manager: "docker", Err: err}
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
