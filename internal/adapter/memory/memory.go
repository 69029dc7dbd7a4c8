// Package memory implements an in-memory state store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"notes/internal/domain"
)

// Store keeps client state in a map.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Ensure interfaces are met.
var _ domain.StateStore = (*Store)(nil)

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
