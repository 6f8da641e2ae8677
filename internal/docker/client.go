// Package docker implements container-isolated environment execution on
// top of the Docker Engine SDK.
//
// An environment with a container block gets an Executor from this
// package: every command runs in a one-shot container created from the
// configured image, with the project root bind-mounted inside. Containers
// are labelled with a "runbox." prefix so leftovers can be discovered and
// removed by "runbox clean --containers".
package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// pingTimeout bounds the daemon probe in Ping. Docker Desktop on macOS
// can take a few seconds to answer the first request after idling.
const pingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It exists to keep the SDK
// types out of the rest of the application and to centralize socket
// detection and daemon availability errors.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client. The connection string comes from
// DOCKER_HOST when set; otherwise the platform's default socket is
// probed (unix socket on Linux and macOS, named pipe on Windows).
//
// Returns a model.CLIError with ExitDockerNotRunning when no socket is
// found or the client cannot be constructed.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning,
				"Docker socket not found", err)
		}
		host = detected
	}

	inner, err := client.NewClientWithOpts(
		client.WithHost(host),
		// Negotiate the API version so one binary works against the
		// range of daemon versions found on developer machines.
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: inner}, nil
}

// detectHost probes the default Docker endpoints for the current platform
// and returns the first one that exists. Existence is checked on the
// filesystem (or with a short dial for Windows pipes); actual daemon
// liveness is Ping's job.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "windows":
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		candidates := []string{"/var/run/docker.sock"}
		if runtime.GOOS == "darwin" {
			// Newer Docker Desktop versions only create the per-user
			// socket and skip the /var/run symlink.
			if home, err := os.UserHomeDir(); err == nil {
				candidates = append(candidates, home+"/.docker/run/docker.sock")
			}
		}
		for _, path := range candidates {
			if _, err := os.Stat(path); err == nil {
				return "unix://" + path, nil
			}
		}
		return "", fmt.Errorf("no Docker socket at %v", candidates)
	}
}

// Ping verifies the Docker daemon is reachable and responding.
// Returns a model.CLIError with ExitDockerNotRunning on failure.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(ctx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			"Docker daemon is not responding (is Docker running?)", err)
	}
	return nil
}

// Inner exposes the underlying SDK client to the rest of this package.
func (c *Client) Inner() *client.Client {
	return c.inner
}

// Close releases the client's underlying HTTP connections.
func (c *Client) Close() error {
	return c.inner.Close()
}
