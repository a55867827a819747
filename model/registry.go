package model

import (
	"sync"
)

// Registry maps capabilities to ordered fallback chains of models and tracks
// per-endpoint health. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]EndpointConfig
	chains    map[Capability][]string
	health    map[string]*endpointHealth
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]EndpointConfig),
		chains:    make(map[Capability][]string),
		health:    make(map[string]*endpointHealth),
	}
}

// NewRegistryFromConfig builds a registry from a validated config.
func NewRegistryFromConfig(cfg *RegistryConfig) *Registry {
	r := NewRegistry()
	for name, ep := range cfg.Endpoints {
		r.AddEndpoint(name, ep)
	}
	for cap, chain := range cfg.Chains {
		r.SetFallbackChain(ParseCapability(cap), chain)
	}
	return r
}

// AddEndpoint registers a named endpoint.
func (r *Registry) AddEndpoint(name string, cfg EndpointConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[name] = cfg
	if _, ok := r.health[name]; !ok {
		r.health[name] = &endpointHealth{}
	}
}

// SetFallbackChain sets the ordered model preference for a capability.
func (r *Registry) SetFallbackChain(cap Capability, chain []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[cap] = append([]string(nil), chain...)
}

// GetEndpoint returns the endpoint config for a model name, or nil.
func (r *Registry) GetEndpoint(name string) *EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ep, ok := r.endpoints[name]; ok {
		cp := ep
		return &cp
	}
	return nil
}

// GetFallbackChain returns the full configured chain for a capability.
func (r *Registry) GetFallbackChain(cap Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.chains[cap]...)
}

// GetAvailableFallbackChain returns the chain for a capability with
// unhealthy endpoints filtered out. When every endpoint is unhealthy the
// full chain is returned, so callers still make a recovery probe rather
// than failing without trying.
func (r *Registry) GetAvailableFallbackChain(cap Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[cap]
	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if h, ok := r.health[name]; !ok || h.available() {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return append([]string(nil), chain...)
	}
	return available
}

// IsEndpointAvailable reports whether the endpoint's circuit is closed.
func (r *Registry) IsEndpointAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.health[name]
	if !ok {
		return true
	}
	return h.available()
}

// MarkEndpointSuccess records a successful call against an endpoint.
func (r *Registry) MarkEndpointSuccess(name string) {
	r.mu.RLock()
	h, ok := r.health[name]
	r.mu.RUnlock()
	if ok {
		h.markSuccess()
	}
}

// MarkEndpointFailure records a failed call against an endpoint.
func (r *Registry) MarkEndpointFailure(name string) {
	r.mu.RLock()
	h, ok := r.health[name]
	r.mu.RUnlock()
	if ok {
		h.markFailure()
	}
}

// Models returns the names of all registered endpoints.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	return names
}
