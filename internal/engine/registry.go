package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrDuplicateKey is returned when a key is registered twice.
	ErrDuplicateKey = errors.New("engine: adapter key already registered")
	// ErrInvalidAdapter is returned for adapters missing a key.
	ErrInvalidAdapter = errors.New("engine: adapter key is required")
)

// Registry holds the registered pricing adapters. It is an explicit value
// passed into the Director so independent pipelines can run with isolated
// plugin sets. Registration happens once at process start; reads are safe for
// concurrent pipeline runs.
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
	byKey    map[string]Adapter
}

// NewRegistry constructs an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Adapter)}
}

// Register adds an adapter, rejecting empty or duplicate keys.
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil || strings.TrimSpace(adapter.Key()) == "" {
		return ErrInvalidAdapter
	}
	key := adapter.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	r.byKey[key] = adapter
	r.adapters = append(r.adapters, adapter)
	return nil
}

// MustRegister behaves like Register but panics on error. Useful at
// composition roots where a registration failure is fatal.
func (r *Registry) MustRegister(adapter Adapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Adapters returns the registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Adapter looks up a single adapter by key.
func (r *Registry) Adapter(key string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.byKey[key]
	return adapter, ok
}
