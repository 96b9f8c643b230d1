package environ

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Manager = (*Mock)(nil)
	_ Manager = (*Docker)(nil)
)

func TestMockLifecycle(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	handle, err := m.Create(ctx, Spec{Image: "ubuntu:24.04", WorkDir: "/workspace"})
	require.NoError(t, err)
	assert.NotEmpty(t, handle.ID)
	assert.Equal(t, "mock-ubuntu:24.04", handle.Name)

	out, err := m.Execute(ctx, handle, []string{"go", "test", "./..."})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Stdout)

	_, err = m.CloneRepository(ctx, handle, "https://example.com/repo.git")
	require.NoError(t, err)

	require.NoError(t, m.Remove(ctx, handle))

	assert.Len(t, m.Created(), 1)
	cmds := m.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"go", "test", "./..."}, cmds[0])
	assert.Equal(t, []string{"git", "clone", "https://example.com/repo.git", "."}, cmds[1])
}

func TestMockScriptedFailures(t *testing.T) {
	m := NewMock()
	m.CreateErr = errors.New("no capacity")

	_, err := m.Create(context.Background(), Spec{Image: "ubuntu:24.04"})
	require.Error(t, err)

	m2 := NewMock()
	m2.ExecuteErr = errors.New("network down")
	handle := Handle{ID: "h1", Name: "env"}

	_, err = m2.Execute(context.Background(), handle, []string{"git", "status"})
	assert.Error(t, err)

	_, err = m2.CloneRepository(context.Background(), handle, "ref")
	assert.Error(t, err)
}

func TestMockCannedOutputs(t *testing.T) {
	m := NewMock()
	m.Outputs["make"] = Output{Stdout: "built", ExitCode: 0}

	out, err := m.Execute(context.Background(), Handle{}, []string{"make", "all"})
	require.NoError(t, err)
	assert.Equal(t, "built", out.Stdout)
}

func TestMockRejectsEmptyCommand(t *testing.T) {
	m := NewMock()
	_, err := m.Execute(context.Background(), Handle{}, nil)
	assert.Error(t, err)
}
