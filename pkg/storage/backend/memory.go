// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// BackendTypeMemory is used for testing
const BackendTypeMemory types.BackendType = "memory"

func init() {
	Register(BackendTypeMemory, func(cfg types.BackendConfig) (types.ObjectBackend, error) {
		return NewMemoryBackend(), nil
	})
}

// MemoryBackend is an in-memory ObjectBackend for testing code that
// consumes the interface. It follows the same layout rules as FS: legacy
// objects are shared by all stores.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string][]byte),
	}
}

func memoryPrefix(storeID string, version types.Version) string {
	if version.PerStore() {
		return "store/" + storeID + "/"
	}
	return "legacy/"
}

func memoryKey(storeID string, version types.Version, id types.ObjectID) string {
	return memoryPrefix(storeID, version) + id.String()
}

func (m *MemoryBackend) Type() types.BackendType {
	return BackendTypeMemory
}

func (m *MemoryBackend) Read(storeID string, version types.Version, id types.ObjectID) ([]byte, error) {
	if err := validate(storeID, version, id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[memoryKey(storeID, version, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return slices.Clone(data), nil
}

func (m *MemoryBackend) Write(storeID string, version types.Version, id types.ObjectID, data []byte, durable bool) error {
	if err := validate(storeID, version, id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memoryKey(storeID, version, id)] = slices.Clone(data)
	return nil
}

func (m *MemoryBackend) Exists(storeID string, version types.Version, id types.ObjectID) bool {
	if validate(storeID, version, id) != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[memoryKey(storeID, version, id)]
	return ok
}

func (m *MemoryBackend) Delete(storeID string, version types.Version, id types.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memoryKey(storeID, version, id))
}

// Foreach visits a snapshot of the store taken before the first visit, so
// visit may call back into the backend.
func (m *MemoryBackend) Foreach(storeID string, version types.Version, visit types.VisitFunc) {
	prefix := memoryPrefix(storeID, version)

	m.mu.RLock()
	var ids []types.ObjectID
	for k := range m.data {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			ids = append(ids, types.ObjectID(rest))
		}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if visit(storeID, version, id) == types.IterStop {
			return
		}
	}
}

func (m *MemoryBackend) RemoveStore(storeID string) error {
	if err := types.ValidateStoreID(storeID); err != nil {
		return err
	}
	prefix := memoryPrefix(storeID, types.VersionStore)

	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

// AddMemory is a convenience method to add a memory backend to the manager
func (mgr *Manager) AddMemory(objectType string) error {
	return mgr.Add(types.BackendConfig{
		Type:       BackendTypeMemory,
		ObjectType: objectType,
	})
}
