package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// CreateChunk adds a single chunk to a document, embedding it into the
// library's index if an embedding is given.
func (db *DB) CreateChunk(ctx context.Context, libraryID, documentID uuid.UUID, position int, text string, embedding []float32, metadata model.Metadata) (*model.Chunk, error) {
	lib, err := db.libs.Get(libraryID)
	if err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}
	doc, err := db.docs.Get(documentID)
	if err != nil || doc.LibraryID != libraryID {
		return nil, NewValidationError("document_id", "document not found or not in library")
	}
	if embedding != nil && len(embedding) != lib.EmbeddingDim {
		return nil, NewValidationError("embedding", "dimension mismatch")
	}

	index, err := db.indexes.Ensure(libraryID, lib.IndexConfig, lib.EmbeddingDim)
	if err != nil {
		return nil, NewInternalError(err.Error())
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	now := time.Now()
	chunk := &model.Chunk{
		ID:         uuid.New(),
		LibraryID:  libraryID,
		DocumentID: documentID,
		Position:   position,
		Text:       text,
		Embedding:  embedding,
		Metadata:   metadata.Clone(),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	db.chunks.Add(chunk)
	if embedding != nil {
		if err := index.Add(chunk.ID, embedding); err != nil {
			db.chunks.Delete(chunk.ID)
			return nil, NewInternalError(err.Error())
		}
	}

	db.touchDocument(documentID, doc.Version)

	db.opts.logger.LogMutation(ctx, "create_chunk", "chunk", chunk.ID.String(), nil)
	return chunk, nil
}

// BulkUpsertInput is one chunk to create within a BulkUpsertChunks call.
type BulkUpsertInput struct {
	Position  int
	Text      string
	Embedding []float32
	Metadata  model.Metadata
}

// BulkUpsertChunks adds many chunks to a document in one write-lock hold.
// Every embedding's dimension is checked before any chunk is written; if
// adding a chunk to the index still fails partway (e.g. a zero vector),
// the chunks this call already wrote are removed from the chunk store and
// the index again, so the batch is all-or-nothing. The document's version
// is bumped once at the end to cover the whole batch.
func (db *DB) BulkUpsertChunks(ctx context.Context, libraryID, documentID uuid.UUID, inputs []BulkUpsertInput) ([]*model.Chunk, error) {
	lib, err := db.libs.Get(libraryID)
	if err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}
	doc, err := db.docs.Get(documentID)
	if err != nil || doc.LibraryID != libraryID {
		return nil, NewValidationError("document_id", "document not found or not in library")
	}
	for i, in := range inputs {
		if in.Embedding != nil && len(in.Embedding) != lib.EmbeddingDim {
			return nil, NewValidationError(fmt.Sprintf("inputs[%d].embedding", i), "dimension mismatch")
		}
	}

	index, err := db.indexes.Ensure(libraryID, lib.IndexConfig, lib.EmbeddingDim)
	if err != nil {
		return nil, NewInternalError(err.Error())
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	now := time.Now()
	created := make([]*model.Chunk, 0, len(inputs))
	for _, in := range inputs {
		chunk := &model.Chunk{
			ID:         uuid.New(),
			LibraryID:  libraryID,
			DocumentID: documentID,
			Position:   in.Position,
			Text:       in.Text,
			Embedding:  in.Embedding,
			Metadata:   in.Metadata.Clone(),
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		db.chunks.Add(chunk)
		if chunk.Embedding != nil {
			if err := index.Add(chunk.ID, chunk.Embedding); err != nil {
				db.chunks.Delete(chunk.ID)
				for _, c := range created {
					index.Remove(c.ID)
					db.chunks.Delete(c.ID)
				}
				return nil, NewInternalError(err.Error())
			}
		}
		created = append(created, chunk)
	}

	db.touchDocument(documentID, doc.Version)

	db.opts.logger.LogMutation(ctx, "bulk_upsert_chunks", "document", documentID.String(), nil)
	return created, nil
}

// UpdateChunk replaces a chunk's text, embedding, and/or metadata,
// updating the library's index in place. Passing a nil embedding leaves
// the existing embedding (and index entry) unchanged. expectedVersion
// must match the chunk's current version or the call fails with
// ErrConflict, guarding against an intervening concurrent write.
func (db *DB) UpdateChunk(ctx context.Context, libraryID, chunkID uuid.UUID, text *string, embedding []float32, metadata *model.Metadata, expectedVersion uint64) (*model.Chunk, error) {
	lib, err := db.libs.Get(libraryID)
	if err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}
	existing, err := db.chunks.Get(chunkID)
	if err != nil || existing.LibraryID != libraryID {
		return nil, NewNotFoundError("chunk not found in library", "chunk_id")
	}
	if embedding != nil && len(embedding) != lib.EmbeddingDim {
		return nil, NewValidationError("embedding", "dimension mismatch")
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	updated, err := db.chunks.UpdateIfVersion(chunkID, expectedVersion, func(c *model.Chunk) error {
		if text != nil {
			c.Text = *text
		}
		if embedding != nil {
			c.Embedding = embedding
		}
		if metadata != nil {
			c.Metadata = metadata.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, translateCASErr(err, "chunk", chunkID)
	}

	if embedding != nil {
		index := db.indexes.Get(libraryID)
		if index != nil {
			if existing.Embedding == nil {
				if err := index.Add(chunkID, embedding); err != nil {
					return nil, NewInternalError(err.Error())
				}
			} else if err := index.Update(chunkID, embedding); err != nil {
				return nil, NewInternalError(err.Error())
			}
		}
	}

	db.opts.logger.LogMutation(ctx, "update_chunk", "chunk", chunkID.String(), nil)
	return updated, nil
}

// DeleteChunk removes a chunk from its document and the library's index.
// No-op if the chunk does not exist or belongs to a different library.
func (db *DB) DeleteChunk(ctx context.Context, libraryID, chunkID uuid.UUID) error {
	chunk, err := db.chunks.Get(chunkID)
	if err != nil || chunk.LibraryID != libraryID {
		return nil
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return ErrBusy
	}
	defer release()

	index := db.indexes.Get(libraryID)
	if index != nil && chunk.Embedding != nil {
		index.Remove(chunkID)
	}
	db.chunks.Delete(chunkID)

	if chunk.HasDocument() {
		if doc, err := db.docs.Get(chunk.DocumentID); err == nil {
			db.touchDocument(chunk.DocumentID, doc.Version)
		}
	}

	db.opts.logger.LogMutation(ctx, "delete_chunk", "chunk", chunkID.String(), nil)
	return nil
}

// GetChunk returns the chunk with the given id, scoped to libraryID.
func (db *DB) GetChunk(ctx context.Context, libraryID, chunkID uuid.UUID) (*model.Chunk, error) {
	chunk, err := db.chunks.Get(chunkID)
	if err != nil {
		return nil, translateStoreErr(err, "chunk", chunkID)
	}
	if chunk.LibraryID != libraryID {
		return nil, NewNotFoundError("chunk not in library", "chunk_id")
	}
	return chunk, nil
}

// touchDocument bumps a document's version/timestamp with no field
// changes, signalling that its chunk set changed even though chunk
// membership itself lives in the chunk store's secondary index rather
// than a field on Document. Best-effort: a lost race here just means the
// document's UpdatedAt lags by one mutation, never a data-loss risk.
func (db *DB) touchDocument(documentID uuid.UUID, expectedVersion uint64) {
	_, _ = db.docs.UpdateIfVersion(documentID, expectedVersion, func(*model.Document) error {
		return nil
	})
}
