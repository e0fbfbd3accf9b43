package provider

import (
	"fmt"
	"sort"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

// Registry holds the provider implementation for each kind.
type Registry struct {
	providers *csmap.CsMap[Kind, Provider]
}

// NewRegistry creates a registry, optionally pre-populated.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: csmap.Create[Kind, Provider]()}
	for _, p := range providers {
		r.providers.Store(p.Kind(), p)
	}
	return r
}

// Register adds a provider. Registering a kind twice is an error.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("cannot register nil provider")
	}
	if r.providers.Has(p.Kind()) {
		return fmt.Errorf("provider %s already registered", p.Kind())
	}
	r.providers.Store(p.Kind(), p)
	return nil
}

// Replace registers p, overwriting any provider of the same kind.
func (r *Registry) Replace(p Provider) {
	r.providers.Store(p.Kind(), p)
}

// Get returns the provider for kind.
func (r *Registry) Get(kind Kind) (Provider, bool) {
	return r.providers.Load(kind)
}

// Lookup returns the provider for kind or a NOT_FOUND error naming the
// missing kind.
func (r *Registry) Lookup(kind Kind) (Provider, error) {
	p, ok := r.providers.Load(kind)
	if !ok {
		return nil, NotFound(kind.String(), fmt.Sprintf("provider %s not registered", kind))
	}
	return p, nil
}

// List returns registered providers in kind order.
func (r *Registry) List() []Provider {
	providers := make([]Provider, 0, r.providers.Count())
	r.providers.Range(func(_ Kind, p Provider) bool {
		providers = append(providers, p)
		return false
	})
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Kind() < providers[j].Kind()
	})
	return providers
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return r.providers.Count()
}
