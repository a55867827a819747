package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// EndpointConfig describes how to reach one model.
type EndpointConfig struct {
	// Provider names the wire format ("anthropic", "openai", "ollama").
	Provider string `json:"provider"`

	// URL is the base URL of the API.
	URL string `json:"url"`

	// Model is the provider-side model identifier.
	Model string `json:"model"`
}

// RegistryConfig is the serialized form of a model registry: named
// endpoints plus an ordered fallback chain per capability.
type RegistryConfig struct {
	Endpoints map[string]EndpointConfig `json:"endpoints"`
	Chains    map[string][]string       `json:"chains"`
}

// Validate checks that chains reference defined endpoints and capabilities
// are known.
func (c *RegistryConfig) Validate() error {
	for cap, chain := range c.Chains {
		if ParseCapability(cap) == "" {
			return fmt.Errorf("unknown capability in chains: %s", cap)
		}
		for _, name := range chain {
			if _, ok := c.Endpoints[name]; !ok {
				return fmt.Errorf("chain %s references undefined endpoint %s", cap, name)
			}
		}
	}
	for name, ep := range c.Endpoints {
		if ep.Provider == "" {
			return fmt.Errorf("endpoint %s missing provider", name)
		}
		if ep.URL == "" {
			return fmt.Errorf("endpoint %s missing url", name)
		}
		if ep.Model == "" {
			return fmt.Errorf("endpoint %s missing model", name)
		}
	}
	return nil
}

// LoadRegistryConfig reads and validates a registry config from a JSON file.
func LoadRegistryConfig(path string) (*RegistryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry config: %w", err)
	}

	var cfg RegistryConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry config: %w", err)
	}
	return &cfg, nil
}
