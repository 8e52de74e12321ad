package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// FallbackStore wraps a durable backend and demotes it to an in-memory store
// for the rest of the session the first time the backend fails on read or
// write. The demotion is silent apart from a logged warning; progress then
// simply stops surviving restarts, which beats crashing the caller.
type FallbackStore struct {
	mu       sync.Mutex
	primary  DocumentStore
	memory   *MemoryStore
	logger   *slog.Logger
	degraded bool
}

func NewFallbackStore(primary DocumentStore, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary: primary,
		memory:  NewMemoryStore(),
		logger:  logger,
	}
}

// Degraded reports whether the store has fallen back to memory.
func (s *FallbackStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FallbackStore) Read(ctx context.Context, key string) ([]byte, error) {
	if s.Degraded() {
		return s.memory.Read(ctx, key)
	}

	document, err := s.primary.Read(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.demote("read", key, err)
		return s.memory.Read(ctx, key)
	}
	return document, err
}

func (s *FallbackStore) Write(ctx context.Context, key string, document []byte) error {
	if s.Degraded() {
		return s.memory.Write(ctx, key, document)
	}

	if err := s.primary.Write(ctx, key, document); err != nil {
		s.demote("write", key, err)
		return s.memory.Write(ctx, key, document)
	}
	return nil
}

func (s *FallbackStore) Delete(ctx context.Context, key string) error {
	if s.Degraded() {
		return s.memory.Delete(ctx, key)
	}

	if err := s.primary.Delete(ctx, key); err != nil {
		s.demote("delete", key, err)
		return s.memory.Delete(ctx, key)
	}
	return nil
}

func (s *FallbackStore) demote(operation, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warn("Storage backend unavailable, falling back to in-memory store for this session",
		"operation", operation,
		"key", key,
		"error", err)
}
