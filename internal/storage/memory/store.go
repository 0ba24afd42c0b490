package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	scopes map[string]map[string]string // scope -> key -> value
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		scopes: make(map[string]map[string]string),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Get(ctx context.Context, scope, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.scopes[scope][key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *Store) Put(ctx context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.scopes[scope]
	if !ok {
		m = make(map[string]string)
		s.scopes[scope] = m
	}
	m[key] = value
	return nil
}

func (s *Store) Delete(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scopes[scope], key)
	return nil
}

func (s *Store) Keys(ctx context.Context, scope string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.scopes[scope]))
	for k := range s.scopes[scope] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scopes, scope)
	return nil
}
