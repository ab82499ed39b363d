// Package persistence provides built-in storage adapters. Host
// applications normally supply their own Store/SecureStore backed by
// platform storage; the in-memory variant serves tests and ephemeral
// embedders.
package persistence

import (
	"sync"

	"ulink/internal/domain/repository"
)

// MemoryStore is a concurrency-safe in-memory key-value store. It
// satisfies both repository.Store and repository.SecureStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get retrieves the value for key.
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", repository.ErrKeyNotFound
	}

	return v, nil
}

// Set persists the value for key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}

// Delete removes the value for key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}
