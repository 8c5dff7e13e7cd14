package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataCloneIsIndependent(t *testing.T) {
	md := Metadata{"a": 1}
	clone := md.Clone()
	clone["a"] = 2
	assert.Equal(t, 1, md["a"])
	assert.Equal(t, 2, clone["a"])
}

func TestMetadataCloneNil(t *testing.T) {
	var md Metadata
	assert.Nil(t, md.Clone())
}

func TestIndexTypeString(t *testing.T) {
	assert.Equal(t, "flat", IndexTypeFlat.String())
	assert.Equal(t, "lsh", IndexTypeLSH.String())
	assert.Equal(t, "ivf", IndexTypeIVF.String())
	assert.Equal(t, "unknown", IndexType(99).String())
}

func TestIndexConfigEqual(t *testing.T) {
	assert.True(t, FlatIndexConfig().Equal(FlatIndexConfig()))
	assert.True(t, LSHIndexConfig(4, 8).Equal(LSHIndexConfig(4, 8)))
	assert.False(t, LSHIndexConfig(4, 8).Equal(LSHIndexConfig(5, 8)))
	assert.False(t, FlatIndexConfig().Equal(IVFIndexConfig(16, 4)))
	assert.True(t, IVFIndexConfig(16, 4).Equal(IVFIndexConfig(16, 4)))
}

func TestLibraryCloneIsDeep(t *testing.T) {
	lib := &Library{ID: uuid.New(), Name: "lib", Metadata: Metadata{"k": "v"}}
	clone := lib.Clone()
	clone.Metadata["k"] = "changed"
	assert.Equal(t, "v", lib.Metadata["k"])
	assert.Equal(t, lib.ID, clone.ID)
}

func TestLibraryBumpAdvancesVersionAndTimestamp(t *testing.T) {
	lib := &Library{Version: 3}
	now := time.Now()
	lib.Bump(now)
	assert.Equal(t, uint64(4), lib.Version)
	assert.Equal(t, now, lib.UpdatedAt)
}

func TestChunkHasDocument(t *testing.T) {
	c := &Chunk{}
	assert.False(t, c.HasDocument())
	c.DocumentID = uuid.New()
	assert.True(t, c.HasDocument())
}

func TestChunkCloneCopiesEmbeddingSlice(t *testing.T) {
	c := &Chunk{ID: uuid.New(), Embedding: []float32{1, 2, 3}}
	clone := c.Clone()
	clone.Embedding[0] = 99
	assert.Equal(t, float32(1), c.Embedding[0])
}

func TestVersionedInterfaceSatisfiedByAllEntities(t *testing.T) {
	var _ Versioned[*Library] = &Library{}
	var _ Versioned[*Document] = &Document{}
	var _ Versioned[*Chunk] = &Chunk{}
	require.True(t, true)
}
