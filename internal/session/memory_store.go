package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for local development and tests.
// Expired records are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[token]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	now := m.now()
	if rec.expired(now) {
		m.mu.Lock()
		// a fresh record may have been put since the read
		if cur, ok := m.records[token]; ok && cur.expired(now) {
			delete(m.records, token)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) Put(_ context.Context, token string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[token] = rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, token)
	return nil
}
