package providers

import (
	"errors"
	"sync"
)

// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
var ErrProviderAlreadyRegistered = errors.New("provider already registered")

// Registry holds providers in priority order. Registration order is the
// order the dispatcher tries them in.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
}

// NewRegistry creates a registry and registers ps in order
func NewRegistry(ps ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]Provider)}
	for _, p := range ps {
		if err := r.RegisterProvider(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterProvider appends a provider at the lowest priority
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers = append(r.providers, provider)
	r.byName[name] = provider
	return nil
}

// Eligible returns the configured providers in priority order
func (r *Registry) Eligible() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, p := range r.providers {
		if p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
