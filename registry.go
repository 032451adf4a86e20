// FILE: lixenwraith/logpipe/registry.go
package logpipe

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs an uninitialized writer.
type Factory func() Writer

// Registry maps writer type names to constructors. Modules that offer a
// writer register it under their own module name; the empty module name is
// used for writers shipped with the facility.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func registryKey(module, typeName string) string {
	return strings.ToLower(strings.TrimSpace(module)) + "/" + strings.TrimSpace(typeName)
}

// Register binds typeName within module to f. Registering a name twice is an error.
func (r *Registry) Register(module, typeName string, f Factory) error {
	if strings.TrimSpace(typeName) == "" {
		return fmtErrorf("writer type name cannot be empty")
	}
	if f == nil {
		return fmtErrorf("nil factory for writer type '%s'", typeName)
	}

	key := registryKey(module, typeName)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmtErrorf("writer type '%s' already registered", key)
	}
	r.factories[key] = f
	return nil
}

// MustRegister is Register that panics on error, for use from init-time wiring.
func (r *Registry) MustRegister(module, typeName string, f Factory) {
	if err := r.Register(module, typeName, f); err != nil {
		panic(err)
	}
}

// New constructs the writer named by wc. The writer is not initialized.
func (r *Registry) New(wc *WriterConfig) (Writer, error) {
	key := registryKey(wc.Module, wc.Type)

	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrWriterTypeNotFound, key)
	}

	w := f()
	if w == nil {
		return nil, fmt.Errorf("%w: factory for '%s' returned nil", ErrNilWriter, key)
	}
	return w, nil
}

// Types lists the registered keys in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for k := range r.factories {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}
