package mockstore

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps type names to generators.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds or replaces the generator for typeName.
func (r *Registry) Register(typeName string, gen Generator) error {
	if typeName == "" {
		return &ValidationError{Field: "typeName", Message: "type name cannot be empty"}
	}
	if gen == nil {
		return &ValidationError{Field: "generator", Message: fmt.Sprintf("generator for %q cannot be nil", typeName)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[typeName] = gen
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typeName string, gen Generator) {
	if err := r.Register(typeName, gen); err != nil {
		panic(err)
	}
}

// Resolve returns the generator for typeName or an *UnknownTypeError.
func (r *Registry) Resolve(typeName string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.generators[typeName]
	if !ok {
		return nil, &UnknownTypeError{TypeName: typeName}
	}
	return gen, nil
}

// Has reports whether a generator is registered for typeName.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.generators[typeName]
	return ok
}

// Types returns registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Static returns a generator that always yields a copy of fields.
func Static(fields Record) Generator {
	return func(GenerateContext) Record {
		return fields.Clone()
	}
}
