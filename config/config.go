// Package config loads the YAML configuration file controlling engine
// tuning, group conversation limits, the execution environment image and the
// model provider. All values have working defaults; loaded files are merged
// over them, so partial configurations are fine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use the human form
// ("30m", "5s") instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// EngineConfig tunes the workflow engine.
type EngineConfig struct {
	Workers       int      `yaml:"workers"`
	IdleWindow    Duration `yaml:"idle_window"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// GroupConfig tunes the multi-agent sub-conversation.
type GroupConfig struct {
	MaxIterations int    `yaml:"max_iterations"`
	HistoryWindow int    `yaml:"history_window"`
	PlanPhrase    string `yaml:"plan_phrase"`
	DonePhrase    string `yaml:"done_phrase"`
}

// EnvironmentConfig describes the isolated execution environment.
type EnvironmentConfig struct {
	Image   string   `yaml:"image"`
	WorkDir string   `yaml:"workdir"`
	Timeout Duration `yaml:"timeout"`
}

// ModelConfig selects and tunes the language-model provider.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic or mock
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// LoggingConfig tunes structured logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Config is the root configuration document.
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Group       GroupConfig       `yaml:"group"`
	Environment EnvironmentConfig `yaml:"environment"`
	Model       ModelConfig       `yaml:"model"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:       8,
			IdleWindow:    Duration(30 * time.Minute),
			SweepInterval: Duration(time.Minute),
		},
		Group: GroupConfig{
			MaxIterations: 10,
			PlanPhrase:    "plan complete",
			DonePhrase:    "implementation complete",
		},
		Environment: EnvironmentConfig{
			Image:   "ubuntu:24.04",
			WorkDir: "/workspace",
			Timeout: Duration(5 * time.Minute),
		},
		Model: ModelConfig{
			Provider:    "openai",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and validates the configuration at path, merged over defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	}
	if c.Group.MaxIterations <= 0 {
		return fmt.Errorf("group.max_iterations must be positive, got %d", c.Group.MaxIterations)
	}
	if c.Environment.Image == "" {
		return fmt.Errorf("environment.image required")
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("model.provider must be openai, anthropic or mock, got %q", c.Model.Provider)
	}
	return nil
}
