package vectordb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	idx "github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
	"github.com/Kshitij-Bakliwal/vector-db-api/store"
)

// CreateLibrary registers a new library with a fixed embedding dimension
// and index configuration (the DB's default config if cfg is nil), and
// eagerly constructs its (empty) index.
func (db *DB) CreateLibrary(ctx context.Context, name string, embeddingDim int, cfg *model.IndexConfig, metadata model.Metadata) (*model.Library, error) {
	if name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if embeddingDim <= 0 {
		return nil, NewValidationError("embedding_dim", "must be positive")
	}
	indexConfig := db.opts.defaultIndexConfig
	if cfg != nil {
		indexConfig = *cfg
	}
	if err := validateIndexConfig(indexConfig); err != nil {
		return nil, err
	}

	now := time.Now()
	lib := &model.Library{
		ID:           uuid.New(),
		Name:         name,
		EmbeddingDim: embeddingDim,
		IndexConfig:  indexConfig,
		Metadata:     metadata.Clone(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.libs.Add(lib)

	if _, err := db.indexes.Ensure(lib.ID, indexConfig, embeddingDim); err != nil {
		db.libs.Delete(lib.ID)
		return nil, NewInternalError(err.Error())
	}

	db.opts.logger.LogMutation(ctx, "create_library", "library", lib.ID.String(), nil)
	return lib, nil
}

func validateIndexConfig(cfg model.IndexConfig) error {
	switch cfg.Type {
	case model.IndexTypeFlat:
		return nil
	case model.IndexTypeLSH:
		if cfg.NumTables < 1 {
			return NewValidationError("index_config.num_tables", "must be at least 1")
		}
		if cfg.HyperplanesPerTable < 1 || cfg.HyperplanesPerTable > 64 {
			return NewValidationError("index_config.hyperplanes_per_table", "must be between 1 and 64")
		}
		return nil
	case model.IndexTypeIVF:
		if cfg.NumCentroids < 1 {
			return NewValidationError("index_config.num_centroids", "must be at least 1")
		}
		if cfg.NProbe < 1 {
			return NewValidationError("index_config.nprobe", "must be at least 1")
		}
		return nil
	default:
		return NewValidationError("index_config.type", "unsupported index type")
	}
}

// GetLibrary returns the library with the given id.
func (db *DB) GetLibrary(ctx context.Context, id uuid.UUID) (*model.Library, error) {
	lib, err := db.libs.Get(id)
	if err != nil {
		return nil, translateStoreErr(err, "library", id)
	}
	return lib, nil
}

// ListLibraries returns every library.
func (db *DB) ListLibraries(ctx context.Context) ([]*model.Library, error) {
	return db.libs.List(), nil
}

// UpdateLibraryConfig swaps a library's index configuration and rebuilds
// its index from the library's current chunks, under the library's
// write lock so no search observes a half-rebuilt index. expectedVersion
// must match the library's current version or the call fails with
// ErrConflict, guarding against an intervening concurrent write.
func (db *DB) UpdateLibraryConfig(ctx context.Context, id uuid.UUID, newConfig model.IndexConfig, expectedVersion uint64) (*model.Library, error) {
	if err := validateIndexConfig(newConfig); err != nil {
		return nil, err
	}

	if _, err := db.libs.Get(id); err != nil {
		return nil, translateStoreErr(err, "library", id)
	}

	release, err := db.locks.WriteLock(ctx, id)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	updated, err := db.libs.UpdateIfVersion(id, expectedVersion, func(l *model.Library) error {
		l.IndexConfig = newConfig
		return nil
	})
	if err != nil {
		return nil, translateCASErr(err, "library", id)
	}

	chunks := db.chunks.ListByLibrary(id)
	items := make([]idx.Item, 0, len(chunks))
	for _, c := range chunks {
		if c.Embedding != nil {
			items = append(items, idx.Item{ChunkID: c.ID, Vector: c.Embedding})
		}
	}

	if _, err := db.indexes.Swap(id, newConfig, updated.EmbeddingDim, items); err != nil {
		db.opts.logger.LogRebuild(ctx, id.String(), len(items), err)
		return nil, NewInternalError(err.Error())
	}
	db.opts.logger.LogRebuild(ctx, id.String(), len(items), nil)

	return updated, nil
}

// DeleteLibrary removes a library along with every document and chunk it
// contains, and drops its index. It is a no-op if the library does not exist.
func (db *DB) DeleteLibrary(ctx context.Context, id uuid.UUID) error {
	if _, err := db.libs.Get(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return translateStoreErr(err, "library", id)
	}

	release, err := db.locks.WriteLock(ctx, id)
	if err != nil {
		return ErrBusy
	}
	defer release()

	docIDs := db.docs.DeleteByLibrary(id)
	for _, docID := range docIDs {
		db.chunks.DeleteByDocument(docID)
	}
	db.chunks.DeleteByLibrary(id)
	db.indexes.Drop(id)
	db.libs.Delete(id)

	db.opts.logger.LogMutation(ctx, "delete_library", "library", id.String(), nil)
	return nil
}
