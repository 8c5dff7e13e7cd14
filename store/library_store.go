package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// LibraryStore is an in-memory, id-keyed repository of libraries.
type LibraryStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*model.Library
}

// NewLibraryStore creates an empty library repository.
func NewLibraryStore() *LibraryStore {
	return &LibraryStore{data: make(map[uuid.UUID]*model.Library)}
}

// Add inserts a new library. The store keeps a deep copy, so the caller's
// pointer stays independent of the stored record; every subsequent read
// also returns a clone.
func (s *LibraryStore) Add(lib *model.Library) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[lib.ID] = lib.Clone()
}

// Get returns a deep copy of the library, or ErrNotFound.
func (s *LibraryStore) Get(id uuid.UUID) (*model.Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lib, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return lib.Clone(), nil
}

// List returns deep copies of every library.
func (s *LibraryStore) List() []*model.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Library, 0, len(s.data))
	for _, lib := range s.data {
		out = append(out, lib.Clone())
	}
	return out
}

// Delete removes a library. It is a no-op if absent.
func (s *LibraryStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// UpdateIfVersion applies mutate to the library at id if its stored
// version equals expected, returning the new state or ErrNotFound/ErrStale.
func (s *LibraryStore) UpdateIfVersion(id uuid.UUID, expected uint64, mutate func(*model.Library) error) (*model.Library, error) {
	return CompareAndSwap(&s.mu, s.data, id, expected, time.Now(), mutate)
}
