// Package index defines the common contract every ANN strategy
// (flat/lsh/ivf) implements, and the errors they share.
package index

import (
	"fmt"

	"github.com/google/uuid"
)

// Item is one (chunk id, vector) pair fed to Rebuild.
type Item struct {
	ChunkID uuid.UUID
	Vector  []float32
}

// Hit is one ranked search result: a chunk id and its cosine similarity
// score in [-1, 1], higher meaning closer.
type Hit struct {
	ChunkID uuid.UUID
	Score   float32
}

// FilterFunc is applied to a candidate chunk id after candidate
// generation and before final ranking selection. It returns true if the
// chunk is admissible.
type FilterFunc func(chunkID uuid.UUID) bool

// Index is the contract shared by FlatIndex, LSHIndex, and IVFIndex. All
// implementations store L2-normalized vectors internally and rank by
// cosine similarity.
type Index interface {
	// Add inserts a vector under chunkID. Fails on dimension mismatch, a
	// zero vector, or a duplicate id.
	Add(chunkID uuid.UUID, vector []float32) error

	// Update replaces the stored vector for chunkID. Fails if absent or
	// on dimension mismatch.
	Update(chunkID uuid.UUID, vector []float32) error

	// Remove deletes chunkID. It is idempotent: a no-op if absent.
	Remove(chunkID uuid.UUID)

	// Search returns up to k hits ranked by descending cosine similarity,
	// ties broken by ascending chunk id. filter may be nil.
	Search(query []float32, k int, filter FilterFunc) ([]Hit, error)

	// Rebuild discards all internal state and reconstructs it from items.
	Rebuild(items []Item) error

	// Items returns every (chunk id, vector) pair currently indexed, in
	// no particular order. Used to carry live vectors across a swap to a
	// differently configured index of the same or another strategy.
	Items() []Item

	// Size returns the number of vectors currently indexed.
	Size() int

	// Dim returns the configured embedding dimension.
	Dim() int
}

// ErrDimensionMismatch indicates a vector whose length does not match the
// index's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("index: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrZeroVector indicates a vector with zero L2 norm, which cannot be
// normalized and is rejected as invalid input.
var ErrZeroVector = fmt.Errorf("index: zero vector is not a valid embedding")

// ErrAlreadyExists indicates Add was called with an id already present.
type ErrAlreadyExists struct {
	ChunkID uuid.UUID
}

func (e *ErrAlreadyExists) Error() string {
	return fmt.Sprintf("index: chunk %s already present", e.ChunkID)
}

// ErrNotFound indicates Update was called with an id not present.
type ErrNotFound struct {
	ChunkID uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("index: chunk %s not found", e.ChunkID)
}

// ErrInvalidK indicates a non-positive k was passed to Search.
var ErrInvalidK = fmt.Errorf("index: k must be positive")
