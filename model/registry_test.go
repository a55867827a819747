package model

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.AddEndpoint("strong", EndpointConfig{Provider: "anthropic", URL: "https://api.example.com", Model: "strong-1"})
	r.AddEndpoint("local", EndpointConfig{Provider: "ollama", URL: "http://localhost:11434", Model: "local-1"})
	r.SetFallbackChain(CapabilitySynthesis, []string{"strong", "local"})
	return r
}

func TestParseCapability(t *testing.T) {
	assert.Equal(t, CapabilitySynthesis, ParseCapability("synthesis"))
	assert.Equal(t, CapabilityFast, ParseCapability("fast"))
	assert.Equal(t, Capability(""), ParseCapability("bogus"))
}

func TestGetFallbackChain(t *testing.T) {
	r := testRegistry()
	assert.Equal(t, []string{"strong", "local"}, r.GetFallbackChain(CapabilitySynthesis))
	assert.Empty(t, r.GetFallbackChain(CapabilityFast))
}

func TestGetEndpoint(t *testing.T) {
	r := testRegistry()
	ep := r.GetEndpoint("strong")
	require.NotNil(t, ep)
	assert.Equal(t, "anthropic", ep.Provider)
	assert.Nil(t, r.GetEndpoint("missing"))
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	r := testRegistry()

	for i := 0; i < FailureThreshold-1; i++ {
		r.MarkEndpointFailure("strong")
	}
	assert.True(t, r.IsEndpointAvailable("strong"))

	r.MarkEndpointFailure("strong")
	assert.False(t, r.IsEndpointAvailable("strong"))

	// Unhealthy endpoints drop out of the available chain.
	assert.Equal(t, []string{"local"}, r.GetAvailableFallbackChain(CapabilitySynthesis))
}

func TestSuccessResetsCircuit(t *testing.T) {
	r := testRegistry()
	for i := 0; i < FailureThreshold; i++ {
		r.MarkEndpointFailure("strong")
	}
	require.False(t, r.IsEndpointAvailable("strong"))

	r.MarkEndpointSuccess("strong")
	assert.True(t, r.IsEndpointAvailable("strong"))
}

func TestAllUnhealthyReturnsFullChain(t *testing.T) {
	r := testRegistry()
	for _, name := range []string{"strong", "local"} {
		for i := 0; i < FailureThreshold; i++ {
			r.MarkEndpointFailure(name)
		}
	}
	// A recovery probe is better than failing without trying.
	assert.Equal(t, []string{"strong", "local"}, r.GetAvailableFallbackChain(CapabilitySynthesis))
}

func TestSetDefault_Concurrent(t *testing.T) {
	r := testRegistry()
	SetDefault(r)
	assert.Same(t, r, Default())

	// Replacing the default while readers run must be race-free.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetDefault(NewRegistry())
			_ = Default()
		}()
	}
	wg.Wait()
	assert.NotNil(t, Default())
}

func TestRegistryConfigValidate(t *testing.T) {
	cfg := &RegistryConfig{
		Endpoints: map[string]EndpointConfig{
			"m": {Provider: "openai", URL: "http://x", Model: "m-1"},
		},
		Chains: map[string][]string{"synthesis": {"m"}},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Chains["synthesis"] = []string{"undefined"}
	assert.Error(t, cfg.Validate())

	cfg.Chains["synthesis"] = []string{"m"}
	cfg.Chains["bogus"] = []string{"m"}
	assert.Error(t, cfg.Validate())
}

func TestLoadRegistryConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	content := `{
  "endpoints": {
    "main": {"provider": "anthropic", "url": "https://api.example.com", "model": "m"}
  },
  "chains": {"synthesis": ["main"]}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadRegistryConfig(path)
	require.NoError(t, err)
	r := NewRegistryFromConfig(cfg)
	assert.Equal(t, []string{"main"}, r.GetFallbackChain(CapabilitySynthesis))
}
