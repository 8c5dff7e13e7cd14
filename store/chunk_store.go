package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// ChunkStore is an in-memory repository of chunks, with chunks_by_library
// and chunks_by_document secondary indexes.
type ChunkStore struct {
	mu         sync.RWMutex
	data       map[uuid.UUID]*model.Chunk
	byLibrary  map[uuid.UUID]map[uuid.UUID]struct{}
	byDocument map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewChunkStore creates an empty chunk repository.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		data:       make(map[uuid.UUID]*model.Chunk),
		byLibrary:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
		byDocument: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func addToSet(sets map[uuid.UUID]map[uuid.UUID]struct{}, key, id uuid.UUID) {
	set := sets[key]
	if set == nil {
		set = make(map[uuid.UUID]struct{})
		sets[key] = set
	}
	set[id] = struct{}{}
}

func removeFromSet(sets map[uuid.UUID]map[uuid.UUID]struct{}, key, id uuid.UUID) {
	set := sets[key]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(sets, key)
	}
}

// Add inserts a new chunk and maintains both secondary indexes.
func (s *ChunkStore) Add(c *model.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.ID] = c.Clone()
	addToSet(s.byLibrary, c.LibraryID, c.ID)
	if c.HasDocument() {
		addToSet(s.byDocument, c.DocumentID, c.ID)
	}
}

// Get returns a deep copy of the chunk, or ErrNotFound.
func (s *ChunkStore) Get(id uuid.UUID) (*model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// ListByLibrary returns deep copies of every chunk belonging to lib,
// ordered by Position then ID (Position is a sort key, not a uniqueness
// constraint; ties break on ID for determinism).
func (s *ChunkStore) ListByLibrary(lib uuid.UUID) []*model.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byLibrary[lib]
	out := make([]*model.Chunk, 0, len(ids))
	for id := range ids {
		if c, ok := s.data[id]; ok {
			out = append(out, c.Clone())
		}
	}
	sortChunks(out)
	return out
}

// ListByDocument returns deep copies of every chunk belonging to doc,
// ordered by Position then ID.
func (s *ChunkStore) ListByDocument(doc uuid.UUID) []*model.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDocument[doc]
	out := make([]*model.Chunk, 0, len(ids))
	for id := range ids {
		if c, ok := s.data[id]; ok {
			out = append(out, c.Clone())
		}
	}
	sortChunks(out)
	return out
}

func sortChunks(cs []*model.Chunk) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0; j-- {
			a, b := cs[j-1], cs[j]
			if a.Position < b.Position || (a.Position == b.Position && a.ID.String() <= b.ID.String()) {
				break
			}
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}

// Delete removes a chunk and both its secondary index entries. No-op if absent.
func (s *ChunkStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[id]
	if !ok {
		return
	}
	delete(s.data, id)
	removeFromSet(s.byLibrary, c.LibraryID, id)
	if c.HasDocument() {
		removeFromSet(s.byDocument, c.DocumentID, id)
	}
}

// DeleteByDocument removes every chunk belonging to doc, returning their
// ids. Used to cascade document deletion in the same critical section.
func (s *ChunkStore) DeleteByDocument(doc uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byDocument[doc]
	out := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
		if c, ok := s.data[id]; ok {
			removeFromSet(s.byLibrary, c.LibraryID, id)
		}
		delete(s.data, id)
	}
	delete(s.byDocument, doc)
	return out
}

// DeleteByLibrary removes every chunk belonging to lib, returning their
// ids. Used to cascade library deletion in the same critical section.
func (s *ChunkStore) DeleteByLibrary(lib uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byLibrary[lib]
	out := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
		if c, ok := s.data[id]; ok && c.HasDocument() {
			removeFromSet(s.byDocument, c.DocumentID, id)
		}
		delete(s.data, id)
	}
	delete(s.byLibrary, lib)
	return out
}

// UpdateIfVersion applies mutate to the chunk at id if its stored version
// equals expected.
func (s *ChunkStore) UpdateIfVersion(id uuid.UUID, expected uint64, mutate func(*model.Chunk) error) (*model.Chunk, error) {
	return CompareAndSwap(&s.mu, s.data, id, expected, time.Now(), mutate)
}
