package ivf_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/ivf"
	"github.com/Kshitij-Bakliwal/vector-db-api/testutil"
)

func TestUntrainedIndexFallsBackToExhaustiveScan(t *testing.T) {
	idx := ivf.New(2, 8, 2, 1)
	close := uuid.New()
	far := uuid.New()
	require.NoError(t, idx.Add(close, []float32{1, 0.02}))
	require.NoError(t, idx.Add(far, []float32{0, 1}))

	hits, err := idx.Search([]float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, close, hits[0].ChunkID)
}

func TestRebuildBelowCentroidFloorLeavesUntrained(t *testing.T) {
	idx := ivf.New(4, 100, 3, 1)
	items := []index.Item{
		{ChunkID: uuid.New(), Vector: []float32{1, 0, 0, 0}},
		{ChunkID: uuid.New(), Vector: []float32{0, 1, 0, 0}},
	}
	require.NoError(t, idx.Rebuild(items))
	// Still answers search via exhaustive scan despite 100 configured
	// centroids and only 2 vectors.
	hits, err := idx.Search([]float32{1, 0, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRebuildTrainsAndRecoversClusteredVectors(t *testing.T) {
	rng := testutil.NewRNG(11)
	vecs := rng.ClusteredVectors(300, 8, 5, 0.02)

	idx := ivf.New(8, 5, 5, 11)
	items := make([]index.Item, len(vecs))
	ids := make([]uuid.UUID, len(vecs))
	for i, v := range vecs {
		ids[i] = uuid.New()
		items[i] = index.Item{ChunkID: ids[i], Vector: v}
	}
	require.NoError(t, idx.Rebuild(items))

	target := 0
	hits, err := idx.Search(vecs[target], 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[target], hits[0].ChunkID)
}

func TestAddRejectsDuplicateAndDimensionMismatch(t *testing.T) {
	idx := ivf.New(3, 2, 1, 1)
	id := uuid.New()
	require.NoError(t, idx.Add(id, []float32{1, 0, 0}))

	var existsErr *index.ErrAlreadyExists
	assert.ErrorAs(t, idx.Add(id, []float32{0, 1, 0}), &existsErr)

	var dimErr *index.ErrDimensionMismatch
	assert.ErrorAs(t, idx.Add(uuid.New(), []float32{1, 0}), &dimErr)
}

func TestUpdateMovesVectorBetweenLists(t *testing.T) {
	idx := ivf.New(4, 2, 2, 9)
	items := make([]index.Item, 0, 20)
	ids := make([]uuid.UUID, 20)
	for i := 0; i < 20; i++ {
		ids[i] = uuid.New()
		v := []float32{1, 0, 0, 0}
		if i%2 == 0 {
			v = []float32{0, 1, 0, 0}
		}
		items = append(items, index.Item{ChunkID: ids[i], Vector: v})
	}
	require.NoError(t, idx.Rebuild(items))

	require.NoError(t, idx.Update(ids[0], []float32{0, 0, 1, 0}))
	hits, err := idx.Search([]float32{0, 0, 1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[0], hits[0].ChunkID)
}

func TestRemoveDropsFromPostingList(t *testing.T) {
	idx := ivf.New(2, 1, 1, 1)
	id := uuid.New()
	require.NoError(t, idx.Add(id, []float32{1, 0}))
	idx.Remove(id)
	assert.Equal(t, 0, idx.Size())
}

func TestSearchRejectsInvalidKAndZeroVector(t *testing.T) {
	idx := ivf.New(2, 1, 1, 1)
	_, err := idx.Search([]float32{1, 0}, 0, nil)
	assert.ErrorIs(t, err, index.ErrInvalidK)
	_, err = idx.Search([]float32{0, 0}, 1, nil)
	assert.ErrorIs(t, err, index.ErrZeroVector)
}
