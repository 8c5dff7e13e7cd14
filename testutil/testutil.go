// Package testutil provides deterministic vector and fixture generators
// shared by this module's test files.
package testutil

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
	"github.com/Kshitij-Bakliwal/vector-db-api/vectormath"
)

// RNG wraps math/rand with a recorded seed so callers can reproduce a
// sequence of vectors across test runs. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
}

// NewRNG creates a seeded RNG.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the RNG's initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// UnitVectors generates num L2-normalized random vectors of the given
// dimension, uniformly distributed on the hypersphere (Gaussian
// components, then normalized).
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]float32, num)
	for i := range out {
		v := make([]float32, dim)
		for d := range v {
			v[d] = float32(r.rand.NormFloat64())
		}
		norm, ok := vectormath.NormalizeCopy(v)
		if !ok {
			norm = v
			norm[0] = 1
		}
		out[i] = norm
	}
	return out
}

// ClusteredVectors generates num vectors split across `clusters` random
// unit centroids, each perturbed by Gaussian noise of the given spread.
// Useful for exercising IVF/LSH recall against non-uniform data.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]float32, num)
	for i := range out {
		centroid := centroids[i%clusters]
		v := make([]float32, dim)
		for d := range v {
			v[d] = centroid[d] + float32(r.rand.NormFloat64())*spread
		}
		out[i] = v
	}
	return out
}

// Float32InRange returns a pseudo-random float32 in [lo, hi).
func (r *RNG) Float32InRange(lo, hi float32) float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rand.Float32()*(hi-lo)
}

// NewLibrary builds an in-memory *model.Library fixture, not registered
// with any DB -- for tests exercising the store/index layers directly.
func NewLibrary(name string, embeddingDim int, cfg model.IndexConfig) *model.Library {
	return &model.Library{
		ID:           uuid.New(),
		Name:         name,
		EmbeddingDim: embeddingDim,
		IndexConfig:  cfg,
		Metadata:     model.Metadata{},
		Version:      0,
	}
}

// NewDocument builds an in-memory *model.Document fixture for libraryID.
func NewDocument(libraryID uuid.UUID) *model.Document {
	return &model.Document{
		ID:        uuid.New(),
		LibraryID: libraryID,
		Metadata:  model.Metadata{},
		Version:   0,
	}
}

// NewChunk builds an in-memory *model.Chunk fixture.
func NewChunk(libraryID, documentID uuid.UUID, position int, embedding []float32) *model.Chunk {
	return &model.Chunk{
		ID:         uuid.New(),
		LibraryID:  libraryID,
		DocumentID: documentID,
		Position:   position,
		Text:       "chunk text",
		Embedding:  embedding,
		Metadata:   model.Metadata{},
		Version:    0,
	}
}
