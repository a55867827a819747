package llm

import (
	"net/http"
	"sync"
)

// Provider abstracts the wire format of an LLM API. Implementations live in
// the providers subpackage and register themselves at init time.
type Provider interface {
	// Name returns the provider identifier used in endpoint configs.
	Name() string

	// BuildURL constructs the completion endpoint URL from the base URL.
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific headers (API keys, versions).
	SetHeaders(req *http.Request)

	// BuildRequestBody serializes a completion request for this provider.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse extracts the completion from a provider response body.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// RegisterProvider makes a provider available by name. First registration
// wins; re-registering the same name is ignored.
func RegisterProvider(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if _, exists := providers[p.Name()]; exists {
		return
	}
	providers[p.Name()] = p
}

// GetProvider returns the provider registered under name, or nil.
func GetProvider(name string) Provider {
	providersMu.RLock()
	defer providersMu.RUnlock()
	return providers[name]
}

// Providers returns the names of all registered providers.
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
