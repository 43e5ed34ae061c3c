package guestcart

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	version  string
	payload  []byte
	modified time.Time
}

// MemoryRepository keeps records in process. Used in development and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]memoryEntry)}
}

func (m *MemoryRepository) Load(_ context.Context, guestID string) (string, []byte, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[guestID]
	if !ok {
		return "", nil, time.Time{}, ErrRecordNotFound
	}
	return e.version, append([]byte(nil), e.payload...), e.modified, nil
}

func (m *MemoryRepository) Save(_ context.Context, guestID, version string, payload []byte, modified time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[guestID] = memoryEntry{
		version:  version,
		payload:  append([]byte(nil), payload...),
		modified: modified,
	}
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, guestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, guestID)
	return nil
}

func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
