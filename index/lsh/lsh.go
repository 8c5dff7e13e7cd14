// Package lsh implements random-hyperplane locality-sensitive hashing
// over cosine similarity: each table hashes a vector to an H-bit
// signature via the sign of its dot product with H random hyperplanes;
// buckets sharing a query's signature (and, if that yields too few
// candidates, its Hamming-1 neighborhood) are exact-reranked.
package lsh

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/internal/topk"
	"github.com/Kshitij-Bakliwal/vector-db-api/vectormath"
)

// OversampleFactor and MinCandidates set the candidate-set floor a search
// tries to meet before falling back to a Hamming-1 probe, per spec.md §4.3:
// max(k*OversampleFactor, MinCandidates).
const (
	OversampleFactor = 10
	MinCandidates    = 64
)

// MaxHyperplanesPerTable bounds H so a signature fits in a uint64.
const MaxHyperplanesPerTable = 64

var _ index.Index = (*Index)(nil)

type table struct {
	hyperplanes [][]float32 // H x dim, unit-length
	buckets     map[uint64]map[uuid.UUID]struct{}
}

func newTable(dim, h int, rng *rand.Rand) *table {
	planes := make([][]float32, h)
	for i := range planes {
		v := make([]float32, dim)
		for d := range v {
			v[d] = float32(rng.NormFloat64())
		}
		if norm, ok := vectormath.NormalizeCopy(v); ok {
			planes[i] = norm
		} else {
			// Degenerate zero sample (astronomically unlikely); fall back
			// to an axis-aligned unit vector so every table stays usable.
			v[0] = 1
			planes[i] = v
		}
	}
	return &table{hyperplanes: planes, buckets: make(map[uint64]map[uuid.UUID]struct{})}
}

func (t *table) signature(vec []float32) uint64 {
	var sig uint64
	for i, hp := range t.hyperplanes {
		if vectormath.Dot(vec, hp) >= 0 {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

func (t *table) add(chunkID uuid.UUID, sig uint64) {
	b := t.buckets[sig]
	if b == nil {
		b = make(map[uuid.UUID]struct{})
		t.buckets[sig] = b
	}
	b[chunkID] = struct{}{}
}

func (t *table) remove(chunkID uuid.UUID, sig uint64) {
	b := t.buckets[sig]
	if b == nil {
		return
	}
	delete(b, chunkID)
	if len(b) == 0 {
		delete(t.buckets, sig)
	}
}

// Index is the random-hyperplane LSH index.
type Index struct {
	mu sync.RWMutex

	dim int
	l   int
	h   int

	tables []*table
	vecs   map[uuid.UUID][]float32 // normalized
	sigs   map[uuid.UUID][]uint64  // per-table signature, parallel to tables
}

// New creates an LSH index with L tables of H hyperplanes each, seeded
// deterministically so identical seeds reproduce identical hash tables
// (spec.md §8's determinism property).
func New(dim, numTables, hyperplanesPerTable int, seed int64) (*Index, error) {
	if hyperplanesPerTable > MaxHyperplanesPerTable {
		return nil, fmt.Errorf("index/lsh: hyperplanes_per_table %d exceeds max %d", hyperplanesPerTable, MaxHyperplanesPerTable)
	}
	if numTables < 1 || hyperplanesPerTable < 1 {
		return nil, fmt.Errorf("index/lsh: num_tables and hyperplanes_per_table must be positive")
	}
	rng := rand.New(rand.NewSource(seed))
	tables := make([]*table, numTables)
	for i := range tables {
		tables[i] = newTable(dim, hyperplanesPerTable, rng)
	}
	return &Index{
		dim:    dim,
		l:      numTables,
		h:      hyperplanesPerTable,
		tables: tables,
		vecs:   make(map[uuid.UUID][]float32),
		sigs:   make(map[uuid.UUID][]uint64),
	}, nil
}

func (idx *Index) Dim() int { return idx.dim }

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vecs)
}

func (idx *Index) signaturesFor(vec []float32) []uint64 {
	sigs := make([]uint64, len(idx.tables))
	for i, t := range idx.tables {
		sigs[i] = t.signature(vec)
	}
	return sigs
}

func (idx *Index) insertLocked(chunkID uuid.UUID, norm []float32) {
	sigs := idx.signaturesFor(norm)
	idx.vecs[chunkID] = norm
	idx.sigs[chunkID] = sigs
	for i, t := range idx.tables {
		t.add(chunkID, sigs[i])
	}
}

func (idx *Index) removeLocked(chunkID uuid.UUID) {
	sigs, ok := idx.sigs[chunkID]
	if !ok {
		return
	}
	for i, t := range idx.tables {
		t.remove(chunkID, sigs[i])
	}
	delete(idx.vecs, chunkID)
	delete(idx.sigs, chunkID)
}

func (idx *Index) Items() []index.Item {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	items := make([]index.Item, 0, len(idx.vecs))
	for id, vec := range idx.vecs {
		items = append(items, index.Item{ChunkID: id, Vector: vec})
	}
	return items
}

func (idx *Index) normalizeChecked(vector []float32) ([]float32, error) {
	if len(vector) != idx.dim {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dim, Actual: len(vector)}
	}
	norm, ok := vectormath.NormalizeCopy(vector)
	if !ok {
		return nil, index.ErrZeroVector
	}
	return norm, nil
}

func (idx *Index) Add(chunkID uuid.UUID, vector []float32) error {
	norm, err := idx.normalizeChecked(vector)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.vecs[chunkID]; exists {
		return &index.ErrAlreadyExists{ChunkID: chunkID}
	}
	idx.insertLocked(chunkID, norm)
	return nil
}

func (idx *Index) Update(chunkID uuid.UUID, vector []float32) error {
	norm, err := idx.normalizeChecked(vector)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.vecs[chunkID]; !exists {
		return &index.ErrNotFound{ChunkID: chunkID}
	}
	idx.removeLocked(chunkID)
	idx.insertLocked(chunkID, norm)
	return nil
}

func (idx *Index) Remove(chunkID uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(chunkID)
}

// flipBit returns sig with bit i flipped, for Hamming-1 neighborhood probes.
func flipBit(sig uint64, i int) uint64 {
	return sig ^ (1 << uint(i))
}

func (idx *Index) Search(query []float32, k int, filter index.FilterFunc) ([]index.Hit, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	normQuery, ok := vectormath.NormalizeCopy(query)
	if !ok {
		return nil, index.ErrZeroVector
	}
	if len(normQuery) != idx.dim {
		return nil, &index.ErrDimensionMismatch{Expected: idx.dim, Actual: len(normQuery)}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vecs) == 0 {
		return nil, nil
	}

	querySigs := idx.signaturesFor(normQuery)
	candidates := make(map[uuid.UUID]struct{})
	for i, t := range idx.tables {
		for id := range t.buckets[querySigs[i]] {
			candidates[id] = struct{}{}
		}
	}

	floor := k * OversampleFactor
	if floor < MinCandidates {
		floor = MinCandidates
	}

	if len(candidates) < floor {
		idx.expandHamming1(querySigs, candidates, floor)
	}

	collector := topk.NewBounded(k)
	for id := range candidates {
		if filter != nil && !filter(id) {
			continue
		}
		vec := idx.vecs[id]
		score := vectormath.CosineOfNormalized(normQuery, vec)
		collector.Push(id, score)
	}

	return toHits(collector.Results()), nil
}

// expandHamming1 adds every candidate whose signature in some table
// differs from the query's by exactly one bit, continuing table by table
// until the floor is met or every table's neighborhood is exhausted.
func (idx *Index) expandHamming1(querySigs []uint64, candidates map[uuid.UUID]struct{}, floor int) {
	for i, t := range idx.tables {
		if len(candidates) >= floor {
			return
		}
		for bit := 0; bit < idx.h; bit++ {
			neighbor := flipBit(querySigs[i], bit)
			for id := range t.buckets[neighbor] {
				candidates[id] = struct{}{}
			}
			if len(candidates) >= floor {
				return
			}
		}
	}
}

func (idx *Index) Rebuild(items []index.Item) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, t := range idx.tables {
		t.buckets = make(map[uint64]map[uuid.UUID]struct{})
	}
	idx.vecs = make(map[uuid.UUID][]float32, len(items))
	idx.sigs = make(map[uuid.UUID][]uint64, len(items))

	for _, it := range items {
		norm, ok := vectormath.NormalizeCopy(it.Vector)
		if !ok {
			continue
		}
		if len(norm) != idx.dim {
			return &index.ErrDimensionMismatch{Expected: idx.dim, Actual: len(norm)}
		}
		idx.insertLocked(it.ChunkID, norm)
	}
	return nil
}

func toHits(items []topk.Item) []index.Hit {
	out := make([]index.Hit, len(items))
	for i, it := range items {
		out[i] = index.Hit{ChunkID: it.ChunkID, Score: it.Score}
	}
	return out
}
