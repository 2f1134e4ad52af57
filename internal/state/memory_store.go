package state

import (
	"context"
	"sync"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.Snapshot)}
}

// Get returns a copy of the entry so callers cannot mutate stored state.
func (s *MemoryStore) Get(_ context.Context, storeID string, category models.Category) (models.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.entries[Key(storeID, category)]
	if !ok {
		return nil, false, nil
	}
	return snapshot.Clone(), true, nil
}

// Set replaces the entry with a copy of snapshot.
func (s *MemoryStore) Set(_ context.Context, storeID string, category models.Category, snapshot models.Snapshot) error {
	stored := snapshot.Clone()
	if stored == nil {
		stored = models.Snapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(storeID, category)] = stored
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]models.Snapshot)
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
