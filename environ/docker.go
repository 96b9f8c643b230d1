package environ

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/codemesh/logging"
)

// DockerOptions configure the Docker-backed environment manager.
type DockerOptions struct {
	// Command is the container runtime binary. Empty auto-detects docker,
	// falling back to podman.
	Command string
	// NamePrefix prefixes generated container names.
	NamePrefix string
	// ExecTimeout bounds each Execute call. Zero means no extra bound
	// beyond the caller's context.
	ExecTimeout time.Duration
	// Logger receives lifecycle diagnostics.
	Logger logging.Logger
}

// Docker implements Manager by shelling out to the docker (or podman) CLI.
// Each environment is a long-running container kept alive with a sleep
// process; commands run via exec inside it.
type Docker struct {
	opts DockerOptions
}

// NewDocker constructs a Docker manager.
func NewDocker(optFns ...func(o *DockerOptions)) *Docker {
	opts := DockerOptions{
		NamePrefix: "codemesh-env-",
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Command == "" {
		opts.Command = detectRuntime()
	}
	return &Docker{opts: opts}
}

func detectRuntime() string {
	if _, err := exec.LookPath("docker"); err == nil {
		return "docker"
	}
	if _, err := exec.LookPath("podman"); err == nil {
		return "podman"
	}
	return "docker"
}

// Available reports whether the container runtime daemon is reachable.
func (d *Docker) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, d.opts.Command, "ps", "-q").Run() == nil
}

// Create implements Manager. The container is started detached and idles
// until removed.
func (d *Docker) Create(ctx context.Context, spec Spec) (Handle, error) {
	if spec.Image == "" {
		return Handle{}, fmt.Errorf("environment spec: image required")
	}
	name := d.opts.NamePrefix + uuid.NewString()[:8]

	args := []string{"run", "-d", "--name", name}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	for k, v := range spec.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, spec.Image, "sleep", "infinity")

	out, err := d.run(ctx, args)
	if err != nil {
		return Handle{}, fmt.Errorf("create environment: %w", err)
	}
	id := strings.TrimSpace(out.Stdout)
	d.opts.Logger.Info("environment created", "name", name, "image", spec.Image)
	return Handle{ID: id, Name: name}, nil
}

// Execute implements Manager.
func (d *Docker) Execute(ctx context.Context, handle Handle, command []string) (Output, error) {
	if len(command) == 0 {
		return Output{}, fmt.Errorf("command cannot be empty")
	}
	if d.opts.ExecTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.ExecTimeout)
		defer cancel()
	}
	args := append([]string{"exec", handle.Name}, command...)
	out, err := d.run(ctx, args)
	if err != nil {
		return out, fmt.Errorf("execute in %s: %w", handle.Name, err)
	}
	return out, nil
}

// CloneRepository implements Manager by running git clone inside the
// environment.
func (d *Docker) CloneRepository(ctx context.Context, handle Handle, repoRef string) (Output, error) {
	if repoRef == "" {
		return Output{}, fmt.Errorf("repository reference cannot be empty")
	}
	return d.Execute(ctx, handle, []string{"git", "clone", repoRef, "."})
}

// Remove implements Manager.
func (d *Docker) Remove(ctx context.Context, handle Handle) error {
	if _, err := d.run(ctx, []string{"rm", "-f", handle.Name}); err != nil {
		return fmt.Errorf("remove environment %s: %w", handle.Name, err)
	}
	d.opts.Logger.Info("environment removed", "name", handle.Name)
	return nil
}

func (d *Docker) run(ctx context.Context, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, d.opts.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		out.ExitCode = exitErr.ExitCode()
	}
	if err != nil {
		return out, fmt.Errorf("%s %s: %w (stderr: %s)", d.opts.Command, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
