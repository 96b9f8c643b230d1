package environ

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Mock is a scripted, in-memory Manager for tests and examples. By default
// every operation succeeds; individual operations can be forced to fail.
// Safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// CreateErr, when set, fails Create.
	CreateErr error
	// ExecuteErr, when set, fails Execute and CloneRepository.
	ExecuteErr error
	// Outputs maps the first command word to a canned output.
	Outputs map[string]Output

	created []Handle
	execs   [][]string
	removed []string
}

// NewMock returns an all-succeeding scripted manager.
func NewMock() *Mock {
	return &Mock{Outputs: map[string]Output{}}
}

// Create implements Manager.
func (m *Mock) Create(_ context.Context, spec Spec) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return Handle{}, m.CreateErr
	}
	h := Handle{ID: uuid.NewString(), Name: "mock-" + spec.Image}
	m.created = append(m.created, h)
	return h, nil
}

// Execute implements Manager.
func (m *Mock) Execute(_ context.Context, handle Handle, command []string) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(command) == 0 {
		return Output{}, fmt.Errorf("command cannot be empty")
	}
	if m.ExecuteErr != nil {
		return Output{}, m.ExecuteErr
	}
	m.execs = append(m.execs, command)
	if out, ok := m.Outputs[command[0]]; ok {
		return out, nil
	}
	return Output{Stdout: "ok"}, nil
}

// CloneRepository implements Manager.
func (m *Mock) CloneRepository(ctx context.Context, handle Handle, repoRef string) (Output, error) {
	return m.Execute(ctx, handle, []string{"git", "clone", repoRef, "."})
}

// Remove implements Manager.
func (m *Mock) Remove(_ context.Context, handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, handle.Name)
	return nil
}

// Created returns the handles provisioned so far.
func (m *Mock) Created() []Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Handle, len(m.created))
	copy(out, m.created)
	return out
}

// Removed returns the names of torn-down environments.
func (m *Mock) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.removed))
	copy(out, m.removed)
	return out
}

// Commands returns every executed command in order.
func (m *Mock) Commands() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.execs))
	copy(out, m.execs)
	return out
}
