package lsh_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/lsh"
	"github.com/Kshitij-Bakliwal/vector-db-api/testutil"
)

func TestNewRejectsTooManyHyperplanes(t *testing.T) {
	_, err := lsh.New(4, 2, lsh.MaxHyperplanesPerTable+1, 1)
	assert.Error(t, err)
}

func TestNewRejectsNonPositiveParams(t *testing.T) {
	_, err := lsh.New(4, 0, 4, 1)
	assert.Error(t, err)
	_, err = lsh.New(4, 4, 0, 1)
	assert.Error(t, err)
}

func TestNewIsDeterministicForFixedSeed(t *testing.T) {
	a, err := lsh.New(8, 4, 6, 42)
	require.NoError(t, err)
	b, err := lsh.New(8, 4, 6, 42)
	require.NoError(t, err)

	rng := testutil.NewRNG(1)
	vecs := rng.UnitVectors(20, 8)
	ids := make([]uuid.UUID, len(vecs))
	for i, v := range vecs {
		ids[i] = uuid.New()
		require.NoError(t, a.Add(ids[i], v))
		require.NoError(t, b.Add(ids[i], v))
	}

	query := vecs[0]
	hitsA, err := a.Search(query, 5, nil)
	require.NoError(t, err)
	hitsB, err := b.Search(query, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, hitsA, hitsB)
}

func TestAddRejectsDimensionMismatchAndZeroVector(t *testing.T) {
	idx, err := lsh.New(3, 2, 4, 1)
	require.NoError(t, err)

	derr := idx.Add(uuid.New(), []float32{1, 0})
	var dimErr *index.ErrDimensionMismatch
	assert.ErrorAs(t, derr, &dimErr)

	err = idx.Add(uuid.New(), []float32{0, 0, 0})
	assert.ErrorIs(t, err, index.ErrZeroVector)
}

func TestSearchFindsExactMatchAmongManyVectors(t *testing.T) {
	idx, err := lsh.New(16, 8, 10, 7)
	require.NoError(t, err)

	rng := testutil.NewRNG(7)
	vecs := rng.UnitVectors(200, 16)
	ids := make([]uuid.UUID, len(vecs))
	for i, v := range vecs {
		ids[i] = uuid.New()
		require.NoError(t, idx.Add(ids[i], v))
	}

	target := 42
	hits, err := idx.Search(vecs[target], 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[target], hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-4)
}

func TestSearchOnEmptyIndexReturnsNil(t *testing.T) {
	idx, err := lsh.New(4, 2, 4, 1)
	require.NoError(t, err)
	hits, err := idx.Search([]float32{1, 0, 0, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRemoveThenSearchExcludesRemoved(t *testing.T) {
	idx, err := lsh.New(4, 4, 4, 3)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, idx.Add(id, []float32{1, 0, 0, 0}))
	idx.Remove(id)
	assert.Equal(t, 0, idx.Size())

	hits, err := idx.Search([]float32{1, 0, 0, 0}, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	idx, err := lsh.New(4, 2, 4, 1)
	require.NoError(t, err)
	err = idx.Update(uuid.New(), []float32{1, 0, 0, 0})
	var notFoundErr *index.ErrNotFound
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestRebuildReplacesState(t *testing.T) {
	idx, err := lsh.New(4, 2, 4, 5)
	require.NoError(t, err)
	require.NoError(t, idx.Add(uuid.New(), []float32{1, 0, 0, 0}))

	fresh := uuid.New()
	err = idx.Rebuild([]index.Item{{ChunkID: fresh, Vector: []float32{0, 1, 0, 0}}})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())
}
