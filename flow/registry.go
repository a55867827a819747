package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Extractor parses source text and extracts facts for a named function.
// Implementations are per-language and register themselves via init().
type Extractor interface {
	// Language returns the language identifier (e.g., "go", "python").
	Language() string

	// Extract parses the full file and returns facts for the first node
	// whose declared name matches functionName. No overload or signature
	// disambiguation is attempted.
	Extract(ctx context.Context, src []byte, functionName string) (*Facts, error)
}

// ExtractorFactory creates a fresh Extractor instance.
type ExtractorFactory func() Extractor

// Registry maps language names to extractor factories.
// Thread-safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ExtractorFactory
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ExtractorFactory)}
}

// Register adds an extractor factory for a language. The first registration
// wins on conflict.
func (r *Registry) Register(language string, factory ExtractorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[language]; !exists {
		r.factories[language] = factory
	}
}

// Create instantiates an extractor for a language.
func (r *Registry) Create(language string) (Extractor, error) {
	r.mu.RLock()
	factory, ok := r.factories[language]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no extractor registered for language: %s", language)
	}
	return factory(), nil
}

// Languages returns all registered language names.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global extractor registry. Language extractors
// register themselves via init() functions.
var DefaultRegistry = NewRegistry()

// Extract runs the registered extractor for a language and degrades to
// empty facts on any failure. This path never raises: an unknown language,
// a parse failure or a missing function all yield Degraded facts.
func Extract(ctx context.Context, language string, src []byte, functionName string) *Facts {
	extractor, err := DefaultRegistry.Create(language)
	if err != nil {
		slog.Debug("No extractor for language, degrading", "language", language, "function", functionName)
		return Degraded()
	}

	facts, err := extractor.Extract(ctx, src, functionName)
	if err != nil || facts == nil {
		slog.Debug("Extraction degraded",
			"language", language,
			"function", functionName,
			"error", err)
		return Degraded()
	}
	return facts
}
