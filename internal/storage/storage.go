package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists one JSON document per key, last write wins. All
// implementations must treat an unreadable document the same as an absent
// one from the caller's point of view: callers fall back to defaults.
type DocumentStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, document []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps documents in process memory. It backs tests and serves
// as the silent fallback when a durable backend is unavailable.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string][]byte),
	}
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	document, ok := s.documents[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(document))
	copy(copied, document)
	return copied, nil
}

func (s *MemoryStore) Write(_ context.Context, key string, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(document))
	copy(copied, document)
	s.documents[key] = copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, key)
	return nil
}
