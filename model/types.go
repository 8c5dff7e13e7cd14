// Package model defines the entities shared across the vector database core:
// libraries, documents, chunks, and the tagged index-configuration variant.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is a free-form key/value bag attached to libraries, documents,
// and chunks.
type Metadata map[string]any

// Clone returns a deep-enough copy of md for safe storage outside a
// critical section. Nested maps/slices are copied shallowly, which is
// sufficient since callers treat metadata values as opaque JSON-like data.
func (md Metadata) Clone() Metadata {
	if md == nil {
		return nil
	}
	out := make(Metadata, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// IndexType discriminates the tagged IndexConfig variant.
type IndexType int

const (
	IndexTypeFlat IndexType = iota
	IndexTypeLSH
	IndexTypeIVF
)

func (t IndexType) String() string {
	switch t {
	case IndexTypeFlat:
		return "flat"
	case IndexTypeLSH:
		return "lsh"
	case IndexTypeIVF:
		return "ivf"
	default:
		return "unknown"
	}
}

// IndexConfig is the tagged variant describing which ANN strategy a
// library uses and its strategy-specific parameters. Only the fields
// relevant to Type are meaningful.
type IndexConfig struct {
	Type IndexType

	// LSH parameters.
	NumTables            int
	HyperplanesPerTable int

	// IVF parameters.
	NumCentroids int
	NProbe       int
}

// FlatIndexConfig returns the configuration for the exact, brute-force index.
func FlatIndexConfig() IndexConfig {
	return IndexConfig{Type: IndexTypeFlat}
}

// LSHIndexConfig returns the configuration for a random-hyperplane LSH index.
func LSHIndexConfig(numTables, hyperplanesPerTable int) IndexConfig {
	return IndexConfig{Type: IndexTypeLSH, NumTables: numTables, HyperplanesPerTable: hyperplanesPerTable}
}

// IVFIndexConfig returns the configuration for an inverted-file k-means index.
func IVFIndexConfig(numCentroids, nprobe int) IndexConfig {
	return IndexConfig{Type: IndexTypeIVF, NumCentroids: numCentroids, NProbe: nprobe}
}

// Equal reports whether two configs describe the same index (same strategy
// and same parameters). The IndexRegistry rebuilds an index whenever the
// config changes under this definition.
func (c IndexConfig) Equal(other IndexConfig) bool {
	if c.Type != other.Type {
		return false
	}
	switch c.Type {
	case IndexTypeLSH:
		return c.NumTables == other.NumTables && c.HyperplanesPerTable == other.HyperplanesPerTable
	case IndexTypeIVF:
		return c.NumCentroids == other.NumCentroids && c.NProbe == other.NProbe
	default:
		return true
	}
}

// Versioned is implemented by every mutable entity (*Library, *Document,
// *Chunk) so the store package's generic CAS helper can bump a version
// and hand back a deep copy without knowing the concrete entity type.
type Versioned[T any] interface {
	VersionNumber() uint64
	Bump(now time.Time)
	Clone() T
}

// Library is the top-level container: a fixed embedding dimension, a
// single pluggable index configuration, and free-form metadata.
type Library struct {
	ID           uuid.UUID
	Name         string
	EmbeddingDim int
	IndexConfig  IndexConfig
	Metadata     Metadata
	Version      uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of l suitable for returning to callers outside
// a critical section.
func (l *Library) Clone() *Library {
	if l == nil {
		return nil
	}
	out := *l
	out.Metadata = l.Metadata.Clone()
	return &out
}

// VersionNumber returns the entity's current version.
func (l *Library) VersionNumber() uint64 { return l.Version }

// Bump advances the entity's version by one and stamps UpdatedAt.
func (l *Library) Bump(now time.Time) {
	l.Version++
	l.UpdatedAt = now
}

// Document groups chunks within a library. It has no vector of its own.
type Document struct {
	ID        uuid.UUID
	LibraryID uuid.UUID
	Metadata  Metadata
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of d suitable for returning to callers outside
// a critical section.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata = d.Metadata.Clone()
	return &out
}

// VersionNumber returns the entity's current version.
func (d *Document) VersionNumber() uint64 { return d.Version }

// Bump advances the entity's version by one and stamps UpdatedAt.
func (d *Document) Bump(now time.Time) {
	d.Version++
	d.UpdatedAt = now
}

// Chunk is the indexable unit: text plus an embedding. DocumentID is the
// nil UUID when the chunk belongs directly to a library with no document.
type Chunk struct {
	ID         uuid.UUID
	LibraryID  uuid.UUID
	DocumentID uuid.UUID
	Position   int
	Text       string
	Embedding  []float32
	Metadata   Metadata
	Version    uint64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasDocument reports whether the chunk belongs to a document.
func (c *Chunk) HasDocument() bool {
	return c.DocumentID != uuid.Nil
}

// Clone returns a deep copy of c suitable for returning to callers outside
// a critical section.
func (c *Chunk) Clone() *Chunk {
	if c == nil {
		return nil
	}
	out := *c
	out.Metadata = c.Metadata.Clone()
	if c.Embedding != nil {
		out.Embedding = make([]float32, len(c.Embedding))
		copy(out.Embedding, c.Embedding)
	}
	return &out
}

// VersionNumber returns the entity's current version.
func (c *Chunk) VersionNumber() uint64 { return c.Version }

// Bump advances the entity's version by one and stamps UpdatedAt.
func (c *Chunk) Bump(now time.Time) {
	c.Version++
	c.UpdatedAt = now
}
