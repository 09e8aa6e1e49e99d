// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package backend provides object backend implementations.
// All backends implement types.ObjectBackend.
package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// Registry holds registered backend factories
var (
	registryMu sync.RWMutex
	registry   = make(map[types.BackendType]Factory)
)

// Factory creates an ObjectBackend from config
type Factory func(cfg types.BackendConfig) (types.ObjectBackend, error)

// Register adds a factory for a backend type
func Register(t types.BackendType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New creates an ObjectBackend from config
func New(cfg types.BackendConfig) (types.ObjectBackend, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
	return f(cfg)
}

// Manager tracks one backend per object type
type Manager struct {
	mu       sync.RWMutex
	backends map[string]types.ObjectBackend
	configs  map[string]types.BackendConfig
}

// NewManager creates a backend manager
func NewManager() *Manager {
	return &Manager{
		backends: make(map[string]types.ObjectBackend),
		configs:  make(map[string]types.BackendConfig),
	}
}

// Add creates and registers the backend for cfg.ObjectType, replacing
// any previous one.
func (m *Manager) Add(cfg types.BackendConfig) error {
	b, err := New(cfg)
	if err != nil {
		return fmt.Errorf("create backend %s: %w", cfg.ObjectType, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.backends[cfg.ObjectType]; exists {
		old.Close()
	}

	m.backends[cfg.ObjectType] = b
	m.configs[cfg.ObjectType] = cfg
	return nil
}

// Get retrieves the backend of an object type
func (m *Manager) Get(objectType string) (types.ObjectBackend, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[objectType]
	return b, ok
}

// Config returns the config a backend was created from
func (m *Manager) Config(objectType string) (types.BackendConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[objectType]
	return cfg, ok
}

// Remove closes and removes a backend
func (m *Manager) Remove(objectType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.backends[objectType]; ok {
		b.Close()
		delete(m.backends, objectType)
		delete(m.configs, objectType)
	}
	return nil
}

// List returns all object types, sorted
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.backends))
	for id := range m.backends {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close closes all backends
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.backends {
		b.Close()
	}
	m.backends = make(map[string]types.ObjectBackend)
	m.configs = make(map[string]types.BackendConfig)
	return nil
}
