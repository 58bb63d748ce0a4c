package history

import (
	"context"
	"sync"

	"paper-rag/internal/models"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]models.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]models.HistoryEntry)}
}

func (m *MemoryStore) Append(_ context.Context, entry models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.SessionID] = append(m.entries[entry.SessionID], entry)
	return nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.entries[sessionID]
	out := make([]models.HistoryEntry, len(stored))
	for i, e := range stored {
		out[len(stored)-1-i] = e
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
