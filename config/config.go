// Package config defines the YAML configuration for the analysis pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Drift     DriftConfig     `yaml:"drift"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	NATS      NATSConfig      `yaml:"nats"`
	Model     ModelConfig     `yaml:"model"`
	Watch     WatchConfig     `yaml:"watch"`
}

// SegmenterConfig controls diff segmentation.
type SegmenterConfig struct {
	// TestPatterns are glob patterns for files excluded from analysis.
	TestPatterns []string `yaml:"test_patterns,omitempty"`
}

// SynthesisConfig controls specification synthesis.
type SynthesisConfig struct {
	// Capability selects the model class used for synthesis.
	Capability string `yaml:"capability"`

	// Timeout bounds each backend call.
	Timeout time.Duration `yaml:"timeout"`
}

// DriftConfig controls drift detection thresholds.
type DriftConfig struct {
	ComplexityRatio     float64 `yaml:"complexity_ratio"`
	ConfidencePerReason float64 `yaml:"confidence_per_reason"`
}

// PipelineConfig controls pipeline execution.
type PipelineConfig struct {
	// Concurrency bounds how many functions are processed at once.
	Concurrency int `yaml:"concurrency"`
}

// NATSConfig controls the optional NATS integration for shared baselines
// and event publishing.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// ModelConfig locates the model registry.
type ModelConfig struct {
	// RegistryPath is a JSON file of endpoints and fallback chains. Empty
	// disables LLM synthesis; the deterministic fallback still runs.
	RegistryPath string `yaml:"registry_path,omitempty"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Synthesis: SynthesisConfig{
			Capability: "synthesis",
			Timeout:    60 * time.Second,
		},
		Drift: DriftConfig{
			ComplexityRatio:     1.5,
			ConfidencePerReason: 25,
		},
		Pipeline: PipelineConfig{
			Concurrency: 4,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://localhost:4222",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Synthesis.Capability == "" {
		return fmt.Errorf("synthesis.capability is required")
	}
	if c.Synthesis.Timeout <= 0 {
		return fmt.Errorf("synthesis.timeout must be positive")
	}
	if c.Drift.ComplexityRatio <= 1.0 {
		return fmt.Errorf("drift.complexity_ratio must be greater than 1.0")
	}
	if c.Drift.ConfidencePerReason <= 0 {
		return fmt.Errorf("drift.confidence_per_reason must be positive")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be positive")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	return nil
}

// LoadFromFile reads a configuration file, filling unset fields from the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
