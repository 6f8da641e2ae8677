// exec.go implements the container-backed command executor.
//
// Each command runs in its own one-shot container: create from the
// configured image (pulling it on first use), bind-mount the project root
// at the container workdir, start, stream logs, wait for the exit code,
// and remove the container. One container per command keeps the isolation
// model simple — no long-lived container to leak state between commands —
// at the cost of image-start overhead, which is acceptable for a task
// runner.
package docker

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mmr-tortoise/runbox/internal/model"
	"github.com/mmr-tortoise/runbox/internal/runner"
)

// hostOnlyVars are environment variables whose host values are
// meaningless (or harmful) inside a container and are therefore stripped
// from the command environment before it is handed to Docker. The image
// supplies its own PATH and HOME.
var hostOnlyVars = map[string]bool{
	"PATH":   true,
	"HOME":   true,
	"TMPDIR": true,
}

// Executor runs commands of one environment inside one-shot containers.
// It implements runner.Executor.
type Executor struct {
	cli         *Client
	envName     string
	projectRoot string
	spec        *model.ContainerSpec

	// pulled records whether the image was already ensured during this
	// run, so only the first command pays the pull check.
	pulled bool
}

// NewExecutor creates a container executor for the named environment.
// It verifies daemon connectivity up front so a stopped Docker surfaces
// as a clean preflight error instead of a mid-run create failure.
func NewExecutor(ctx context.Context, cli *Client, envName, projectRoot string, spec *model.ContainerSpec) (*Executor, error) {
	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}
	return &Executor{
		cli:         cli,
		envName:     envName,
		projectRoot: projectRoot,
		spec:        spec,
	}, nil
}

// Run implements runner.Executor: it executes one command in a fresh
// container and returns the container's exit code.
func (e *Executor) Run(ctx context.Context, spec runner.ExecSpec) (int, error) {
	id, err := e.createContainer(ctx, spec)
	if err != nil {
		return 0, err
	}
	// Best-effort removal; the container has already delivered its exit
	// code by the time this runs, and clean --containers catches strays.
	defer func() {
		_ = e.cli.Inner().ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true})
	}()

	if err := e.cli.Inner().ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return 0, fmt.Errorf("failed to start container for %s: %w", spec.Argv[0], err)
	}

	// Stream the container's output while waiting for it to finish.
	logs, err := e.cli.Inner().ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to attach to container logs: %w", err)
	}
	logsDone := make(chan struct{})
	go func() {
		defer close(logsDone)
		defer logs.Close()
		// Docker multiplexes stdout/stderr over one stream; stdcopy
		// demultiplexes it back onto the two writers.
		_, _ = stdcopy.StdCopy(spec.Stdout, spec.Stderr, logs)
	}()

	waitCh, errCh := e.cli.Inner().ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		<-logsDone
		if status.Error != nil {
			return 0, fmt.Errorf("container wait failed: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	case err := <-errCh:
		return 0, fmt.Errorf("container wait failed: %w", err)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// createContainer creates the one-shot container for a command, pulling
// the image on demand when the daemon does not have it yet.
func (e *Executor) createContainer(ctx context.Context, spec runner.ExecSpec) (string, error) {
	cfg := &container.Config{
		Image:      e.spec.Image,
		Cmd:        strslice.StrSlice(spec.Argv),
		WorkingDir: e.containerDir(spec.Dir),
		Env:        e.containerEnv(spec.Env),
		Labels:     BuildLabels(e.envName, time.Now()),
	}
	hostCfg := &container.HostConfig{
		Binds: []string{e.projectRoot + ":" + e.spec.Workdir},
	}

	created, err := e.cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err == nil {
		return created.ID, nil
	}
	if !client.IsErrNotFound(err) || e.pulled {
		return "", fmt.Errorf("failed to create container from %s: %w", e.spec.Image, err)
	}

	// Image is not present locally: pull it and retry once.
	reader, pullErr := e.cli.Inner().ImagePull(ctx, e.spec.Image, image.PullOptions{})
	if pullErr != nil {
		return "", fmt.Errorf("failed to pull image %s: %w", e.spec.Image, pullErr)
	}
	// The pull stream must be drained for the pull to complete.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()
	e.pulled = true

	created, err = e.cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container from %s: %w", e.spec.Image, err)
	}
	return created.ID, nil
}

// containerDir translates the host working directory into its location
// under the container mount. Directories outside the project root fall
// back to the mount point itself.
func (e *Executor) containerDir(hostDir string) string {
	rel, err := filepath.Rel(e.projectRoot, hostDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return e.spec.Workdir
	}
	if rel == "." {
		return e.spec.Workdir
	}
	return path.Join(e.spec.Workdir, filepath.ToSlash(rel))
}

// containerEnv builds the container environment: the runner-provided
// pairs minus host-only variables, overlaid with the container block's
// own env table.
func (e *Executor) containerEnv(runnerEnv []string) []string {
	env := make([]string, 0, len(runnerEnv)+len(e.spec.Env))
	for _, kv := range runnerEnv {
		name, _, ok := strings.Cut(kv, "=")
		if ok && hostOnlyVars[name] {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range e.spec.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// RemoveManagedContainers removes all containers carrying the runbox
// management label, optionally restricted to the given environment names.
// It returns the number of containers removed.
//
// Used by "runbox clean --containers" to collect strays from interrupted
// runs.
func RemoveManagedContainers(ctx context.Context, cli *Client, envNames []string) (int, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to list runbox containers", err)
	}

	wanted := make(map[string]bool, len(envNames))
	for _, name := range envNames {
		wanted[name] = true
	}

	removed := 0
	for _, c := range containers {
		if len(wanted) > 0 && !wanted[EnvOf(c.Labels)] {
			continue
		}
		if err := cli.Inner().ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return removed, fmt.Errorf("failed to remove container %s: %w", c.ID[:12], err)
		}
		removed++
	}
	return removed, nil
}
