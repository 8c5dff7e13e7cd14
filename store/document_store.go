package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// DocumentStore is an in-memory repository of documents, with a secondary
// documents_by_library index for cascade deletion and listing.
type DocumentStore struct {
	mu        sync.RWMutex
	data      map[uuid.UUID]*model.Document
	byLibrary map[uuid.UUID]map[uuid.UUID]struct{} // library id -> set of document ids
}

// NewDocumentStore creates an empty document repository.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		data:      make(map[uuid.UUID]*model.Document),
		byLibrary: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Add inserts a new document and maintains the by-library secondary index.
func (s *DocumentStore) Add(doc *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[doc.ID] = doc.Clone()
	set := s.byLibrary[doc.LibraryID]
	if set == nil {
		set = make(map[uuid.UUID]struct{})
		s.byLibrary[doc.LibraryID] = set
	}
	set[doc.ID] = struct{}{}
}

// Get returns a deep copy of the document, or ErrNotFound.
func (s *DocumentStore) Get(id uuid.UUID) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// ListByLibrary returns deep copies of every document belonging to lib.
func (s *DocumentStore) ListByLibrary(lib uuid.UUID) []*model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byLibrary[lib]
	out := make([]*model.Document, 0, len(ids))
	for id := range ids {
		if doc, ok := s.data[id]; ok {
			out = append(out, doc.Clone())
		}
	}
	return out
}

// Delete removes a document and its by-library index entry. No-op if absent.
func (s *DocumentStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.data[id]
	if !ok {
		return
	}
	delete(s.data, id)
	if set := s.byLibrary[doc.LibraryID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(s.byLibrary, doc.LibraryID)
		}
	}
}

// DeleteByLibrary removes every document belonging to lib, returning their
// ids (used by the service layer to cascade-delete their chunks in the
// same critical section).
func (s *DocumentStore) DeleteByLibrary(lib uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byLibrary[lib]
	out := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
		delete(s.data, id)
	}
	delete(s.byLibrary, lib)
	return out
}

// UpdateIfVersion applies mutate to the document at id if its stored
// version equals expected.
func (s *DocumentStore) UpdateIfVersion(id uuid.UUID, expected uint64, mutate func(*model.Document) error) (*model.Document, error) {
	return CompareAndSwap(&s.mu, s.data, id, expected, time.Now(), mutate)
}
