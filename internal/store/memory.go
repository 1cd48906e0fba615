package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and by ad-hoc tooling that
// has no database at hand.
type Memory struct {
	mu      sync.RWMutex
	doc     []byte
	savedAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed creates a memory store preloaded with a document, as if it had been
// saved earlier. Useful for corruption and migration tests.
func Seed(doc []byte) *Memory {
	return &Memory{doc: append([]byte(nil), doc...), savedAt: time.Now()}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.doc...), nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = append([]byte(nil), doc...)
	m.savedAt = time.Now()
	return nil
}

// SavedAt implements Store.
func (m *Memory) SavedAt(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return time.Time{}, ErrNotFound
	}
	return m.savedAt, nil
}
