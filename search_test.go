package vectordb_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectordb "github.com/Kshitij-Bakliwal/vector-db-api"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

func TestSearchRejectsNonPositiveK(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)
	_, err := db.Search(ctx, lib.ID, []float32{1, 0}, 0, vectordb.SearchOptions{})
	assert.ErrorIs(t, err, vectordb.ErrValidation)
}

func TestSearchOnLibraryWithNoIndexedChunksReturnsEmpty(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)
	results, err := db.Search(ctx, lib.ID, []float32{1, 0}, 3, vectordb.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFiltersByDocumentID(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)

	docA, _, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)
	_, _, err = db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "b", Embedding: []float32{0.99, 0.01}},
	})
	require.NoError(t, err)

	results, err := db.Search(ctx, lib.ID, []float32{1, 0}, 5, vectordb.SearchOptions{DocumentID: &docA.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.Text)
}

func TestSearchFiltersByMetadata(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)

	_, _, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "keep", Embedding: []float32{1, 0}, Metadata: model.Metadata{"tag": "keep"}},
		{Text: "drop", Embedding: []float32{0.99, 0.01}, Metadata: model.Metadata{"tag": "drop"}},
	})
	require.NoError(t, err)

	results, err := db.Search(ctx, lib.ID, []float32{1, 0}, 5, vectordb.SearchOptions{
		MetadataFilter: func(md model.Metadata) bool { return md["tag"] == "keep" },
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].Chunk.Text)
}

func TestSearchFiltersByStructuredMetadataPredicates(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)

	_, _, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "cheap", Embedding: []float32{1, 0}, Metadata: model.Metadata{"price": 5.0, "tag": "sale"}},
		{Text: "pricey", Embedding: []float32{0.99, 0.01}, Metadata: model.Metadata{"price": 500.0, "tag": "sale"}},
		{Text: "untagged", Embedding: []float32{0.98, 0.02}, Metadata: model.Metadata{"price": 5.0}},
	})
	require.NoError(t, err)

	results, err := db.Search(ctx, lib.ID, []float32{1, 0}, 5, vectordb.SearchOptions{
		Metadata: model.FilterSet{
			{Key: "price", Operator: model.OpLessEqual, Value: 10.0},
			{Key: "tag", Operator: model.OpEqual, Value: "sale"},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cheap", results[0].Chunk.Text)
}

func TestSearchNotFoundLibrary(t *testing.T) {
	db := vectordb.New()
	_, err := db.Search(context.Background(), uuid.New(), []float32{1, 0}, 1, vectordb.SearchOptions{})
	assert.ErrorIs(t, err, vectordb.ErrNotFound)
}

func TestConcurrentChunkUpdatesPreserveExactlyOneWinnerPerVersion(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 2)
	doc, err := db.CreateDocument(ctx, lib.ID, nil)
	require.NoError(t, err)
	chunk, err := db.CreateChunk(ctx, lib.ID, doc.ID, 0, "start", []float32{1, 0}, nil)
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	successes := make([]bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := "writer"
			_, err := db.UpdateChunk(ctx, lib.ID, chunk.ID, &text, []float32{1, float32(i) * 0.001}, nil, chunk.Version)
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	final, err := db.GetChunk(ctx, lib.ID, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", final.Text)
	// Every writer passes the same expected version and CAS is not retried,
	// so exactly one wins and the rest get ErrConflict.
	wins := 0
	for _, ok := range successes {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestConcurrentSearchesDuringIndexSwapSeeOneConsistentIndex(t *testing.T) {
	db := vectordb.New()
	ctx := context.Background()
	lib := mustLibrary(t, db, 4)
	_, _, err := db.CreateDocumentWithChunks(ctx, lib.ID, nil, []vectordb.ChunkInput{
		{Text: "a", Embedding: []float32{1, 0, 0, 0}},
		{Text: "b", Embedding: []float32{0, 1, 0, 0}},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Search(ctx, lib.ID, []float32{1, 0, 0, 0}, 2, vectordb.SearchOptions{})
			if err != nil {
				errs <- err
			}
		}()
	}
	_, err = db.UpdateLibraryConfig(ctx, lib.ID, model.IVFIndexConfig(1, 1), lib.Version)
	require.NoError(t, err)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected search error during concurrent index swap: %v", err)
	}
}
