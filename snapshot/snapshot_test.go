package snapshot_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
	"github.com/Kshitij-Bakliwal/vector-db-api/snapshot"
)

func sampleEntities() ([]*model.Library, []*model.Document, []*model.Chunk) {
	lib := &model.Library{ID: uuid.New(), Name: "lib", EmbeddingDim: 2, IndexConfig: model.FlatIndexConfig(), Metadata: model.Metadata{}}
	doc := &model.Document{ID: uuid.New(), LibraryID: lib.ID, Metadata: model.Metadata{}}
	chunk := &model.Chunk{ID: uuid.New(), LibraryID: lib.ID, DocumentID: doc.ID, Text: "hi", Embedding: []float32{1, 0}, Metadata: model.Metadata{}}
	return []*model.Library{lib}, []*model.Document{doc}, []*model.Chunk{chunk}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	libs, docs, chunks := sampleEntities()

	var buf bytes.Buffer
	require.NoError(t, snapshot.Save(&buf, libs, docs, chunks))

	loaded, err := snapshot.Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded.Libraries, 1)
	require.Len(t, loaded.Documents, 1)
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, libs[0].ID, loaded.Libraries[0].ID)
	assert.Equal(t, chunks[0].Embedding, loaded.Chunks[0].Embedding)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := snapshot.Load(bytes.NewReader([]byte("not a valid snapshot header at all")))
	assert.Error(t, err)
}

func TestLoadRejectsTruncatedHeader(t *testing.T) {
	_, err := snapshot.Load(bytes.NewReader([]byte("short")))
	assert.Error(t, err)
}

func TestLoadRejectsCorruptedChecksum(t *testing.T) {
	libs, docs, chunks := sampleEntities()
	var buf bytes.Buffer
	require.NoError(t, snapshot.Save(&buf, libs, docs, chunks))

	raw := buf.Bytes()
	// Flip a byte in the JSON body without touching the header's checksum.
	raw[len(raw)-1] ^= 0xFF

	_, err := snapshot.Load(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	libs, docs, chunks := sampleEntities()
	path := t.TempDir() + "/snapshot.bin"

	require.NoError(t, snapshot.SaveToFile(path, libs, docs, chunks))

	loaded, err := snapshot.LoadFromFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Libraries, 1)
}
