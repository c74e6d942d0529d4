package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openvault/openvault/internal/types"
)

// Registry manages registered completion providers. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Registering a name that already
// exists is an error; use Replace to swap a provider out.
func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return types.NewError(ErrProviderInvalidInput, "provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return types.NewError(ErrProviderInvalidInput, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return types.NewError(ErrProviderAlreadyExists, fmt.Sprintf("provider '%s' is already registered", name))
	}

	r.providers[name] = provider
	return nil
}

// Replace registers a provider, overwriting any existing provider with the
// same name.
func (r *Registry) Replace(provider Provider) error {
	if provider == nil {
		return types.NewError(ErrProviderInvalidInput, "provider cannot be nil")
	}
	if provider.Name() == "" {
		return types.NewError(ErrProviderInvalidInput, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, NewProviderNotFoundError(name)
	}
	return provider, nil
}

// Unregister removes a provider from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return NewProviderNotFoundError(name)
	}

	delete(r.providers, name)
	return nil
}

// List returns the names of all registered providers in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// HealthCheck runs a health check against every registered provider and
// returns the per-provider status keyed by provider name.
func (r *Registry) HealthCheck(ctx context.Context) map[string]types.HealthStatus {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	results := make(map[string]types.HealthStatus, len(providers))
	for name, provider := range providers {
		results[name] = provider.Health(ctx)
	}
	return results
}
