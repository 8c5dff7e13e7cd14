// Package vectordb is an in-process vector database: libraries own a
// fixed embedding dimension and a pluggable ANN index (flat/lsh/ivf);
// documents group chunks; chunks carry text and an embedding and are
// searchable by cosine similarity. Mutations are optimistic-versioned
// and serialized per library by a cancellable reader/writer lock.
package vectordb

import (
	"time"

	"github.com/Kshitij-Bakliwal/vector-db-api/index/registry"
	"github.com/Kshitij-Bakliwal/vector-db-api/lockregistry"
	"github.com/Kshitij-Bakliwal/vector-db-api/store"
)

// DB is the root handle: the entry point for every library, document,
// chunk, and search operation.
type DB struct {
	libs    *store.LibraryStore
	docs    *store.DocumentStore
	chunks  *store.ChunkStore
	locks   *lockregistry.Registry
	indexes *registry.Registry
	opts    options
}

// New constructs an empty, in-memory vector database.
func New(optFns ...Option) *DB {
	o := applyOptions(optFns)
	return &DB{
		libs:    store.NewLibraryStore(),
		docs:    store.NewDocumentStore(),
		chunks:  store.NewChunkStore(),
		locks:   lockregistry.New(),
		indexes: registry.New(time.Now().UnixNano()),
		opts:    o,
	}
}
