package session

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	state     DialogueState
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore keeps sessions in process memory. States are deep-copied on
// the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryRecord
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryRecord),
		now:      time.Now,
	}
}

// WithClock replaces the timestamp source. Intended for tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, sessionID string) (DialogueState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sessions[sessionID]
	if !ok {
		return DialogueState{}, false, nil
	}
	return rec.state.Clone(), true, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, sessionID string, state DialogueState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.sessions[sessionID]
	if !ok {
		rec = &memoryRecord{createdAt: now}
		m.sessions[sessionID] = rec
	}
	rec.state = state.Clone()
	rec.updatedAt = now
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// PurgeIdle implements Store.
func (m *MemoryStore) PurgeIdle(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, rec := range m.sessions {
		if rec.updatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

var _ Store = (*MemoryStore)(nil)
