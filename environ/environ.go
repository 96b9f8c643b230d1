// Package environ provides the isolated execution environment façade
// consumed by the environment setup step. The workflow engine never touches
// container mechanics itself; it only branches on success or failure of
// these narrow operations.
package environ

import "context"

// Spec describes the environment to provision.
type Spec struct {
	// Image is the container image to run.
	Image string
	// WorkDir is the working directory inside the environment.
	WorkDir string
	// Env is extra environment variables for executed commands.
	Env map[string]string
}

// Handle references a provisioned environment.
type Handle struct {
	ID   string
	Name string
}

// Output captures the result of a command executed inside an environment.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Manager is the container lifecycle façade: create and tear down isolated
// execution environments and run commands inside them. Implementations own
// all runtime mechanics; callers own no retry logic.
type Manager interface {
	// Create provisions a new environment from the spec.
	Create(ctx context.Context, spec Spec) (Handle, error)

	// Execute runs a command inside the environment.
	Execute(ctx context.Context, handle Handle, command []string) (Output, error)

	// CloneRepository clones the referenced git repository into the
	// environment's working directory.
	CloneRepository(ctx context.Context, handle Handle, repoRef string) (Output, error)

	// Remove tears the environment down.
	Remove(ctx context.Context, handle Handle) error
}
