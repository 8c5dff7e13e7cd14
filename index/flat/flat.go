// Package flat implements the exact, brute-force index: a linear scan
// over all stored vectors. It is the correctness oracle the other two
// strategies are measured against.
package flat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/internal/topk"
	"github.com/Kshitij-Bakliwal/vector-db-api/vectormath"
)

var _ index.Index = (*Index)(nil)

// Index is the flat (exact) index. Callers are expected to hold the
// owning library's write lock around mutations, same as the other two
// strategies; the internal mutex here only protects against readers
// racing a concurrent Rebuild.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors map[uuid.UUID][]float32 // normalized
}

// New creates an empty flat index for the given embedding dimension.
func New(dim int) *Index {
	return &Index{dim: dim, vectors: make(map[uuid.UUID][]float32)}
}

func (f *Index) Dim() int { return f.dim }

func (f *Index) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *Index) Add(chunkID uuid.UUID, vector []float32) error {
	norm, err := f.normalizeChecked(vector)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.vectors[chunkID]; exists {
		return &index.ErrAlreadyExists{ChunkID: chunkID}
	}
	f.vectors[chunkID] = norm
	return nil
}

func (f *Index) Update(chunkID uuid.UUID, vector []float32) error {
	norm, err := f.normalizeChecked(vector)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.vectors[chunkID]; !exists {
		return &index.ErrNotFound{ChunkID: chunkID}
	}
	f.vectors[chunkID] = norm
	return nil
}

func (f *Index) Remove(chunkID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vectors, chunkID)
}

func (f *Index) Search(query []float32, k int, filter index.FilterFunc) ([]index.Hit, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	normQuery, ok := vectormath.NormalizeCopy(query)
	if !ok {
		return nil, index.ErrZeroVector
	}
	if len(normQuery) != f.dim {
		return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(normQuery)}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	collector := topk.NewBounded(k)
	for chunkID, vec := range f.vectors {
		if filter != nil && !filter(chunkID) {
			continue
		}
		score := vectormath.CosineOfNormalized(normQuery, vec)
		collector.Push(chunkID, score)
	}

	return toHits(collector.Results()), nil
}

func (f *Index) Rebuild(items []index.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fresh := make(map[uuid.UUID][]float32, len(items))
	for _, it := range items {
		norm, ok := vectormath.NormalizeCopy(it.Vector)
		if !ok {
			continue
		}
		if len(norm) != f.dim {
			return &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(norm)}
		}
		fresh[it.ChunkID] = norm
	}
	f.vectors = fresh
	return nil
}

func (f *Index) Items() []index.Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	items := make([]index.Item, 0, len(f.vectors))
	for id, vec := range f.vectors {
		items = append(items, index.Item{ChunkID: id, Vector: vec})
	}
	return items
}

func (f *Index) normalizeChecked(vector []float32) ([]float32, error) {
	if len(vector) != f.dim {
		return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(vector)}
	}
	norm, ok := vectormath.NormalizeCopy(vector)
	if !ok {
		return nil, index.ErrZeroVector
	}
	return norm, nil
}

func toHits(items []topk.Item) []index.Hit {
	out := make([]index.Hit, len(items))
	for i, it := range items {
		out[i] = index.Hit{ChunkID: it.ChunkID, Score: it.Score}
	}
	return out
}
