package vectordb_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectordb "github.com/Kshitij-Bakliwal/vector-db-api"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

func mustLibrary(t *testing.T, db *vectordb.DB, dim int) *model.Library {
	t.Helper()
	lib, err := db.CreateLibrary(context.Background(), "lib", dim, nil, nil)
	require.NoError(t, err)
	return lib
}

func TestCreateDocumentRequiresExistingLibrary(t *testing.T) {
	db := vectordb.New()
	_, err := db.CreateDocument(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, vectordb.ErrNotFound)
}

func TestCreateDocumentWithChunksValidatesAllDimsBeforeWriting(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 4)

	_, _, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "good", Embedding: []float32{1, 0, 0, 0}},
		{Text: "bad", Embedding: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, vectordb.ErrValidation)

	docs, err := db.ListDocuments(ctx, lib.ID)
	require.NoError(t, err)
	assert.Empty(t, docs, "no document should be created when any chunk fails validation")
}

func TestCreateDocumentWithChunksAssignsSequentialPositions(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)

	_, chunks, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0}},
		{Text: "b", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestGetDocumentScopedToLibrary(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	libA := mustLibrary(t, db, 2)
	libB := mustLibrary(t, db, 2)

	doc, err := db.CreateDocument(ctx, libA.ID, nil)
	require.NoError(t, err)

	_, err = db.GetDocument(ctx, libB.ID, doc.ID)
	assert.ErrorIs(t, err, vectordb.ErrNotFound)

	got, err := db.GetDocument(ctx, libA.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestDeleteDocumentCascadesChunksAndIndex(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)

	doc, chunks, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	require.NoError(t, db.DeleteDocument(ctx, lib.ID, doc.ID))

	_, err = db.GetDocument(ctx, lib.ID, doc.ID)
	assert.Error(t, err)
	_, err = db.GetChunk(ctx, lib.ID, chunks[0].ID)
	assert.Error(t, err)

	results, err := db.Search(ctx, lib.ID, []float32{1, 0}, 5, vectordb.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMoveDocumentToLibraryRejectsSameLibrary(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)
	doc, err := db.CreateDocument(ctx, lib.ID, nil)
	require.NoError(t, err)

	_, err = db.MoveDocumentToLibrary(ctx, doc.ID, lib.ID, lib.ID)
	assert.ErrorIs(t, err, vectordb.ErrValidation)
}

func TestMoveDocumentToLibraryRelocatesChunksAndUpdatesIndexes(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	src := mustLibrary(t, db, 2)
	dst := mustLibrary(t, db, 2)

	doc, chunks, err := db.CreateDocumentWithChunks(ctx, src.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	moved, err := db.MoveDocumentToLibrary(ctx, doc.ID, src.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.LibraryID)

	_, err = db.GetDocument(ctx, src.ID, doc.ID)
	assert.Error(t, err)
	got, err := db.GetDocument(ctx, dst.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	srcResults, err := db.Search(ctx, src.ID, []float32{1, 0}, 5, vectordb.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, srcResults)

	dstResults, err := db.Search(ctx, dst.ID, []float32{1, 0}, 5, vectordb.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, dstResults, 1)
	assert.Equal(t, chunks[0].ID, dstResults[0].Chunk.ID)
}

func TestMoveDocumentToLibraryRejectsDestinationDimMismatch(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	src := mustLibrary(t, db, 2)
	dst := mustLibrary(t, db, 3)

	doc, _, err := db.CreateDocumentWithChunks(ctx, src.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	_, err = db.MoveDocumentToLibrary(ctx, doc.ID, src.ID, dst.ID)
	assert.ErrorIs(t, err, vectordb.ErrValidation)
}
