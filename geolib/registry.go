package geolib

import "fmt"

// Registry is an ordered set of providers. Order is a configuration,
// it is never discovered at runtime: the first provider of the
// registry is the one whose textual metadata wins on reconciliation.
type Registry struct {
	providers   []Provider
	index       map[string]int
	defaultName string
}

// All returns providers in registry order.
func (r *Registry) All() []Provider {
	rv := make([]Provider, len(r.providers))

	copy(rv, r.providers)

	return rv
}

// Names returns names of providers in registry order.
func (r *Registry) Names() []string {
	rv := make([]string, 0, len(r.providers))

	for _, v := range r.providers {
		rv = append(rv, v.Name())
	}

	return rv
}

// Get returns a provider by its name. Unknown names fall back to the
// default provider, so typos in single-provider calls do not fail.
func (r *Registry) Get(name string) Provider {
	if idx, ok := r.index[name]; ok {
		return r.providers[idx]
	}

	return r.providers[r.index[r.defaultName]]
}

// Default returns a name of the fallback provider.
func (r *Registry) Default() string {
	return r.defaultName
}

// Len returns a number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// NewRegistry builds a registry. If defaultName is empty, the first
// provider becomes a default one.
func NewRegistry(providers []Provider, defaultName string) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("registry needs at least one provider")
	}

	rv := &Registry{
		providers: make([]Provider, 0, len(providers)),
		index:     make(map[string]int, len(providers)),
	}

	for _, v := range providers {
		name := v.Name()

		if _, ok := rv.index[name]; ok {
			return nil, fmt.Errorf("provider %s is duplicated", name)
		}

		rv.index[name] = len(rv.providers)
		rv.providers = append(rv.providers, v)
	}

	if defaultName == "" {
		defaultName = providers[0].Name()
	}

	if _, ok := rv.index[defaultName]; !ok {
		return nil, fmt.Errorf("default provider %s is unknown", defaultName)
	}

	rv.defaultName = defaultName

	return rv, nil
}
