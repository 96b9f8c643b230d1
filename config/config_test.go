package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "implementation complete", cfg.Group.DonePhrase)
	assert.Equal(t, "ubuntu:24.04", cfg.Environment.Image)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
engine:
  workers: 2
  idle_window: 10m
group:
  max_iterations: 4
model:
  provider: mock
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Engine.IdleWindow.Std())
	assert.Equal(t, 4, cfg.Group.MaxIterations)
	assert.Equal(t, "mock", cfg.Model.Provider)

	// Untouched sections keep their defaults.
	assert.Equal(t, "/workspace", cfg.Environment.WorkDir)
	assert.Equal(t, "plan complete", cfg.Group.PlanPhrase)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "zero workers", mutate: func(c *Config) { c.Engine.Workers = 0 }, wantErr: "engine.workers"},
		{name: "zero iterations", mutate: func(c *Config) { c.Group.MaxIterations = 0 }, wantErr: "max_iterations"},
		{name: "empty image", mutate: func(c *Config) { c.Environment.Image = "" }, wantErr: "environment.image"},
		{name: "unknown provider", mutate: func(c *Config) { c.Model.Provider = "cohere" }, wantErr: "model.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
