package store

import (
	"context"
	"sync"

	"thirdeye/internal/models"
)

// MemoryRepository implements Repository using in-memory maps. It stands
// in for per-device browser storage in tests and local runs.
type MemoryRepository struct {
	namespaces map[string]map[string]string
	mutex      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		namespaces: make(map[string]map[string]string),
	}
}

// Get retrieves the value stored under (namespace, key)
func (m *MemoryRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		return "", models.ErrKeyNotFound
	}
	value, ok := ns[key]
	if !ok {
		return "", models.ErrKeyNotFound
	}
	return value, nil
}

// Set stores a value under (namespace, key)
func (m *MemoryRepository) Set(ctx context.Context, namespace, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		m.namespaces[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Delete removes (namespace, key) if present
func (m *MemoryRepository) Delete(ctx context.Context, namespace, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if ns, ok := m.namespaces[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

// DeleteNamespace removes every key under the namespace
func (m *MemoryRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.namespaces, namespace)
	return nil
}

// Keys returns the keys currently stored under a namespace (for tests/monitoring)
func (m *MemoryRepository) Keys(namespace string) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	keys := make([]string, 0, len(m.namespaces[namespace]))
	for k := range m.namespaces[namespace] {
		keys = append(keys, k)
	}
	return keys
}
