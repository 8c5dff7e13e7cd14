// Package registry maps each library to its live Index, constructing the
// concrete strategy (flat/lsh/ivf) from the library's IndexConfig and
// swapping it wholesale when that config changes.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/flat"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/ivf"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/lsh"
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// Registry holds one Index per library. Callers are responsible for
// holding the library's write lock around Ensure/Swap/Drop and its read
// or write lock around Get's returned Index -- the registry itself only
// protects the map lookup.
type Registry struct {
	mu      sync.Mutex
	indexes map[uuid.UUID]index.Index
	configs map[uuid.UUID]model.IndexConfig
	seed    int64
}

// New creates an empty index registry. seed is used to deterministically
// seed the RNG of every LSH/IVF index it constructs, so identical
// configs and insertion order reproduce identical indexes.
func New(seed int64) *Registry {
	return &Registry{
		indexes: make(map[uuid.UUID]index.Index),
		configs: make(map[uuid.UUID]model.IndexConfig),
		seed:    seed,
	}
}

// Build constructs a fresh Index for the given config and dimension.
func (r *Registry) Build(cfg model.IndexConfig, dim int) (index.Index, error) {
	switch cfg.Type {
	case model.IndexTypeFlat:
		return flat.New(dim), nil
	case model.IndexTypeLSH:
		return lsh.New(dim, cfg.NumTables, cfg.HyperplanesPerTable, r.seed)
	case model.IndexTypeIVF:
		return ivf.New(dim, cfg.NumCentroids, cfg.NProbe, r.seed), nil
	default:
		return nil, fmt.Errorf("index/registry: unsupported index type %q", cfg.Type)
	}
}

// Ensure returns the library's current index, constructing it from cfg if
// none exists yet, or rebuilding it from its own live vectors if cfg
// differs from what it was last built with. The caller must hold the
// library's write lock, same as Swap.
func (r *Registry) Ensure(libraryID uuid.UUID, cfg model.IndexConfig, dim int) (index.Index, error) {
	r.mu.Lock()
	existing, ok := r.indexes[libraryID]
	currentCfg := r.configs[libraryID]
	r.mu.Unlock()

	if ok && currentCfg.Equal(cfg) {
		return existing, nil
	}

	fresh, err := r.Build(cfg, dim)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := fresh.Rebuild(existing.Items()); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.indexes[libraryID] = fresh
	r.configs[libraryID] = cfg
	r.mu.Unlock()
	return fresh, nil
}

// Get returns the library's current index, or nil if none has been
// created yet.
func (r *Registry) Get(libraryID uuid.UUID) index.Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexes[libraryID]
}

// ConfigOf returns the config the library's current index was built
// with, and whether one exists.
func (r *Registry) ConfigOf(libraryID uuid.UUID) (model.IndexConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[libraryID]
	return cfg, ok
}

// Swap builds a fresh index from cfg, rebuilds it from items, and
// replaces the library's current index atomically. The caller must hold
// the library's write lock for the duration -- nothing here prevents a
// concurrent Get from returning the old index mid-swap.
func (r *Registry) Swap(libraryID uuid.UUID, cfg model.IndexConfig, dim int, items []index.Item) (index.Index, error) {
	idx, err := r.Build(cfg, dim)
	if err != nil {
		return nil, err
	}
	if err := idx.Rebuild(items); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.indexes[libraryID] = idx
	r.configs[libraryID] = cfg
	r.mu.Unlock()
	return idx, nil
}

// Drop removes the library's index entirely, e.g. on library deletion.
func (r *Registry) Drop(libraryID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexes, libraryID)
	delete(r.configs, libraryID)
}
