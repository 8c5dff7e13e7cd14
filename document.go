package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	idx "github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// CreateDocument registers a new, empty document within a library.
func (db *DB) CreateDocument(ctx context.Context, libraryID uuid.UUID, metadata model.Metadata) (*model.Document, error) {
	if _, err := db.libs.Get(libraryID); err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	now := time.Now()
	doc := &model.Document{
		ID:        uuid.New(),
		LibraryID: libraryID,
		Metadata:  metadata.Clone(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	db.docs.Add(doc)

	db.opts.logger.LogMutation(ctx, "create_document", "document", doc.ID.String(), nil)
	return doc, nil
}

// ChunkInput is one chunk to create alongside a new document.
type ChunkInput struct {
	Text      string
	Embedding []float32
	Metadata  model.Metadata
}

// CreateDocumentWithChunks creates a document and its chunks atomically
// under a single write-lock hold: every chunk is embedded-dimension
// validated before any are written, then added to the chunk store and
// index together. If adding a chunk to the index fails partway, the
// document and every chunk written so far are removed again.
func (db *DB) CreateDocumentWithChunks(ctx context.Context, libraryID uuid.UUID, docMetadata model.Metadata, chunks []ChunkInput) (*model.Document, []*model.Chunk, error) {
	lib, err := db.libs.Get(libraryID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "library", libraryID)
	}
	for i, c := range chunks {
		if c.Embedding != nil && len(c.Embedding) != lib.EmbeddingDim {
			return nil, nil, NewValidationError(fmt.Sprintf("chunks[%d].embedding", i), "embedding dimension mismatch")
		}
	}

	index, err := db.indexes.Ensure(libraryID, lib.IndexConfig, lib.EmbeddingDim)
	if err != nil {
		return nil, nil, NewInternalError(err.Error())
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, nil, ErrBusy
	}
	defer release()

	now := time.Now()
	doc := &model.Document{
		ID:        uuid.New(),
		LibraryID: libraryID,
		Metadata:  docMetadata.Clone(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	db.docs.Add(doc)

	created := make([]*model.Chunk, 0, len(chunks))
	for i, ci := range chunks {
		chunk := &model.Chunk{
			ID:         uuid.New(),
			LibraryID:  libraryID,
			DocumentID: doc.ID,
			Position:   i,
			Text:       ci.Text,
			Embedding:  ci.Embedding,
			Metadata:   ci.Metadata.Clone(),
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
				db.docs.Delete(doc.ID)
				return nil, nil, NewInternalError(err.Error())
			}
		}
		created = append(created, chunk)
	}

	db.opts.logger.LogMutation(ctx, "create_document_with_chunks", "document", doc.ID.String(), nil)
	return doc, created, nil
}

// GetDocument returns the document with the given id, scoped to libraryID.
func (db *DB) GetDocument(ctx context.Context, libraryID, documentID uuid.UUID) (*model.Document, error) {
	doc, err := db.docs.Get(documentID)
	if err != nil {
		return nil, translateStoreErr(err, "document", documentID)
	}
	if doc.LibraryID != libraryID {
		return nil, NewNotFoundError("document not in library", "document_id")
	}
	return doc, nil
}

// ListDocuments returns every document in a library.
func (db *DB) ListDocuments(ctx context.Context, libraryID uuid.UUID) ([]*model.Document, error) {
	if _, err := db.libs.Get(libraryID); err != nil {
		return nil, translateStoreErr(err, "library", libraryID)
	}
	return db.docs.ListByLibrary(libraryID), nil
}

// UpdateDocumentMetadata replaces a document's metadata.
func (db *DB) UpdateDocumentMetadata(ctx context.Context, libraryID, documentID uuid.UUID, metadata model.Metadata) (*model.Document, error) {
	doc, err := db.GetDocument(ctx, libraryID, documentID)
	if err != nil {
		return nil, err
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	updated, err := db.docs.UpdateIfVersion(documentID, doc.Version, func(d *model.Document) error {
		d.Metadata = metadata.Clone()
		return nil
	})
	if err != nil {
		return nil, translateCASErr(err, "document", documentID)
	}
	return updated, nil
}

// DeleteDocument removes a document and cascades to its chunks, removing
// each from the library's index. No-op if the document does not exist or
// belongs to a different library.
func (db *DB) DeleteDocument(ctx context.Context, libraryID, documentID uuid.UUID) error {
	doc, err := db.docs.Get(documentID)
	if err != nil || doc.LibraryID != libraryID {
		return nil
	}

	release, err := db.locks.WriteLock(ctx, libraryID)
	if err != nil {
		return ErrBusy
	}
	defer release()

	index := db.indexes.Get(libraryID)
	chunkIDs := db.chunks.DeleteByDocument(documentID)
	if index != nil {
		for _, id := range chunkIDs {
			index.Remove(id)
		}
	}
	db.docs.Delete(documentID)

	db.opts.logger.LogMutation(ctx, "delete_document", "document", documentID.String(), nil)
	return nil
}

// MoveDocumentToLibrary relocates a document and every one of its chunks
// from one library to another, re-embedding them into the destination's
// index and removing them from the source's. Both libraries' write locks
// are held for the duration, acquired in a fixed order to avoid deadlock
// against a concurrent move in the opposite direction.
func (db *DB) MoveDocumentToLibrary(ctx context.Context, documentID, srcLibraryID, dstLibraryID uuid.UUID) (*model.Document, error) {
	if srcLibraryID == dstLibraryID {
		return nil, NewValidationError("dst_library_id", "source and destination libraries are the same")
	}

	srcLib, err := db.libs.Get(srcLibraryID)
	if err != nil {
		return nil, translateStoreErr(err, "library", srcLibraryID)
	}
	dstLib, err := db.libs.Get(dstLibraryID)
	if err != nil {
		return nil, translateStoreErr(err, "library", dstLibraryID)
	}

	release, err := db.locks.WriteLockOrdered(ctx, []uuid.UUID{srcLibraryID, dstLibraryID})
	if err != nil {
		return nil, ErrBusy
	}
	defer release()

	doc, err := db.docs.Get(documentID)
	if err != nil || doc.LibraryID != srcLibraryID {
		return nil, NewNotFoundError("document not found in source library", "document_id")
	}

	srcIndex := db.indexes.Get(srcLibraryID)
	dstIndex, err := db.indexes.Ensure(dstLibraryID, dstLib.IndexConfig, dstLib.EmbeddingDim)
	if err != nil {
		return nil, NewInternalError(err.Error())
	}

	chunks := db.chunks.ListByDocument(documentID)
	for _, c := range chunks {
		if c.Embedding != nil && len(c.Embedding) != srcLib.EmbeddingDim {
			return nil, NewInternalError("chunk embedding dimension does not match its current library")
		}
		if c.Embedding != nil && len(c.Embedding) != dstLib.EmbeddingDim {
			return nil, NewValidationError("embedding", "dimension mismatch for destination library")
		}
	}

	movedItems := make([]idx.Item, 0, len(chunks))
	for _, c := range chunks {
		if srcIndex != nil && c.Embedding != nil {
			srcIndex.Remove(c.ID)
		}
		updated, err := db.chunks.UpdateIfVersion(c.ID, c.Version, func(ch *model.Chunk) error {
			ch.LibraryID = dstLibraryID
			return nil
		})
		if err != nil {
			return nil, translateCASErr(err, "chunk", c.ID)
		}
		if updated.Embedding != nil {
			movedItems = append(movedItems, idx.Item{ChunkID: updated.ID, Vector: updated.Embedding})
		}
	}
	for _, it := range movedItems {
		if err := dstIndex.Add(it.ChunkID, it.Vector); err != nil {
			return nil, NewInternalError(err.Error())
		}
	}

	updatedDoc, err := db.docs.UpdateIfVersion(documentID, doc.Version, func(d *model.Document) error {
		d.LibraryID = dstLibraryID
		return nil
	})
	if err != nil {
		return nil, translateCASErr(err, "document", documentID)
	}

	db.opts.logger.LogMutation(ctx, "move_document", "document", documentID.String(), nil)
	return updatedDoc, nil
}
