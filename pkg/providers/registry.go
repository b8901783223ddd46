package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a provider adapter bound to an API key. A non-empty
// baseURL overrides the vendor's default endpoint.
type Factory func(apiKey, baseURL string) Provider

// Registry maps provider type names to adapter factories with thread-safe
// access. Adapters are constructed per call because each one is bound to
// the caller's API key.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry with every built-in vendor registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(openAIName, func(apiKey, baseURL string) Provider { return NewOpenAIProvider(apiKey, baseURL) })
	r.Register(anthropicName, func(apiKey, baseURL string) Provider { return NewAnthropicProvider(apiKey, baseURL) })
	r.Register(geminiName, func(apiKey, baseURL string) Provider { return NewGeminiProvider(apiKey, baseURL) })
	r.Register(groqName, func(apiKey, baseURL string) Provider { return NewGroqProvider(apiKey, baseURL) })
	r.Register(openRouterName, func(apiKey, baseURL string) Provider { return NewOpenRouterProvider(apiKey, baseURL) })
	return r
}

// Register adds or replaces a provider factory (thread-safe).
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get constructs the named provider bound to apiKey. An empty key fails with
// *AuthError before any network activity; an unknown name fails with *Error
// listing the supported set.
func (r *Registry) Get(name, apiKey, baseURL string) (Provider, error) {
	if apiKey == "" {
		return nil, &AuthError{Provider: name}
	}

	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &Error{
			Provider: name,
			Message:  fmt.Sprintf("Unsupported provider: '%s'. Available: %s", name, strings.Join(r.Names(), ", ")),
		}
	}
	return factory(apiKey, baseURL), nil
}

// Has checks if a provider type is registered (thread-safe).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Names returns the registered provider types, sorted (thread-safe).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers (thread-safe).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
