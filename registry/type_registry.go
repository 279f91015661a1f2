/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Factory returns a pointer to a new zero instance of an entity type.
type Factory func() any

// TypeRegistry maps entity paths to factories so rows of a store shared by
// several entities can be decoded by the path recorded with each row.
type TypeRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{factories: make(map[string]Factory)}
}

// Register adds a factory for path. Registering a path twice is an error.
func (tr *TypeRegistry) Register(path string, fn Factory) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.factories[path]; exists {
		return fmt.Errorf("type registry: type %q already registered", path)
	}
	tr.factories[path] = fn
	return nil
}

// MustRegister is Register for init code; it panics to prevent accidental overrides.
func (tr *TypeRegistry) MustRegister(path string, fn Factory) {
	if err := tr.Register(path, fn); err != nil {
		panic(err)
	}
}

// New returns a new instance for path.
func (tr *TypeRegistry) New(path string) (any, error) {
	tr.mu.RLock()
	fn, ok := tr.factories[path]
	tr.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("type registry: no type registered for %q", path)
	}
	return fn(), nil
}

// Paths returns the registered paths, sorted.
func (tr *TypeRegistry) Paths() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]string, 0, len(tr.factories))
	for p := range tr.factories {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
