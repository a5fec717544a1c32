// internal/store/memory.go
//
// In-memory implementation of the KV interface.
// This is a lightweight persistence layer used in tests and for
// ephemeral runs when durability is not required.
//
// Characteristics:
//   - Stores string values keyed by string in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// KV is the opaque persistence surface the stats layer writes through.
// Implementations may be backed by memory (this file), SQLite, Redis, etc.
type KV interface {
	// Get retrieves a value by key. The boolean reports presence, so a
	// missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set persists or replaces a value.
	Set(ctx context.Context, key, value string) error
}

// Memory is a map-backed KV.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory constructs an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Len reports the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
