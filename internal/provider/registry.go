package provider

import (
	"fmt"
	"sort"
)

// Registry holds every registered adapter. It is constructed once at startup
// and passed by reference into the orchestrator; registration after startup
// is not supported, so reads need no locking.
type Registry struct {
	adapters map[string]Adapter
	order    []string // registration order, for stable iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Registering two adapters with the same name is a
// configuration bug and returns an error.
func (r *Registry) Register(a Adapter) error {
	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("provider: duplicate registration for %q", name)
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns a descriptor per registered provider, sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, Describe(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.adapters)
}
