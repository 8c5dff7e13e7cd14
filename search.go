package vectordb

import (
	"context"

	"github.com/google/uuid"

	idx "github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// SearchOptions narrows a search's candidate set before ranking.
type SearchOptions struct {
	// DocumentID, if non-nil, restricts results to chunks of that document.
	DocumentID *uuid.UUID
	// MetadataFilter, if non-nil, admits only chunks whose metadata it
	// accepts. It runs inside the library's read lock, so it must be fast
	// and must not call back into the DB.
	MetadataFilter func(model.Metadata) bool
	// Metadata, if non-empty, admits only chunks whose metadata satisfies
	// every predicate in the set (equal, not-equal, greater/less-than(-or-equal),
	// in, contains). Combined with MetadataFilter, both must pass.
	Metadata model.FilterSet
}

// SearchResult pairs a chunk with its cosine similarity to the query.
type SearchResult struct {
	Chunk *model.Chunk
	Score float32
}

// Search returns up to k chunks from a library ranked by descending
// cosine similarity to query, ties broken by ascending chunk id. It holds
// the library's read lock for the duration, so a concurrent
// UpdateLibraryConfig cannot swap the index out from under it.
func (db *DB) Search(ctx context.Context, libraryID uuid.UUID, query []float32, k int, opts SearchOptions) ([]SearchResult, error) {
	if k <= 0 {
		return nil, NewValidationError("k", "must be positive")
	}

	if _, err := db.libs.Get(libraryID); err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}

	release, err := db.locks.ReadLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	index := db.indexes.Get(libraryID)
	if index == nil {
		return nil, nil
	}

	filter := db.buildFilter(libraryID, opts)

	hits, err := index.Search(query, k, filter)
	if err != nil {
		db.opts.logger.LogSearch(ctx, libraryID.String(), k, 0, err)
		return nil, translateIndexErr(err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		chunk, err := db.chunks.Get(h.ChunkID)
		if err != nil {
			continue // removed between candidate generation and rerank; skip
		}
		results = append(results, SearchResult{Chunk: chunk, Score: h.Score})
	}

	db.opts.logger.LogSearch(ctx, libraryID.String(), k, len(results), nil)
	return results, nil
}

func (db *DB) buildFilter(libraryID uuid.UUID, opts SearchOptions) idx.FilterFunc {
	if opts.DocumentID == nil && opts.MetadataFilter == nil && len(opts.Metadata) == 0 {
		return nil
	}
	return func(chunkID uuid.UUID) bool {
		chunk, err := db.chunks.Get(chunkID)
		if err != nil {
			return false
		}
		if opts.DocumentID != nil && chunk.DocumentID != *opts.DocumentID {
			return false
		}
		if opts.MetadataFilter != nil && !opts.MetadataFilter(chunk.Metadata) {
			return false
		}
		if len(opts.Metadata) != 0 && !opts.Metadata.Matches(chunk.Metadata) {
			return false
		}
		return true
	}
}

func translateIndexErr(err error) error {
	switch err {
	case idx.ErrZeroVector, idx.ErrInvalidK:
		return NewValidationError("query", err.Error())
	}
	if _, ok := err.(*idx.ErrDimensionMismatch); ok {
		return NewValidationError("query", err.Error())
	}
	return NewInternalError(err.Error())
}
