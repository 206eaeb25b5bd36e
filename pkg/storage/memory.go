package storage

import "sync"

// NoopStorage is used where no durable storage exists. It holds nothing, so a
// session started against it is never rehydrated.
type NoopStorage struct{}

func (NoopStorage) Get(string) (string, bool, error) { return "", false, nil }
func (NoopStorage) Put(map[string]string) error      { return nil }
func (NoopStorage) Delete(...string) error           { return nil }

// MemoryStorage keeps values in-process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage initializes an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Put stores all items under one lock.
func (m *MemoryStorage) Put(items map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.values[k] = v
	}
	return nil
}

// Delete removes keys.
func (m *MemoryStorage) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
