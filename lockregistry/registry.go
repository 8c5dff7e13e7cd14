// Package lockregistry provides the per-library reader/writer lock used
// to serialize mutations within a library and let concurrent reads
// proceed against a stable snapshot. Locks are created lazily on first
// use and evicted once their last holder releases, mirroring the
// lifecycle of the library they guard.
//
// Acquisition is cancellable: a context cancelled or timed out while
// waiting leaves no partial state and the caller gets back ctx.Err()
// (the service layer translates this to vectordb.ErrBusy).
package lockregistry

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"sync"
)

// entry is a cancellable reader/writer lock plus a reference count used
// to evict it from the registry once nobody holds or awaits it.
//
// The write side is a single-slot buffered channel acting as a binary
// semaphore (selectable, unlike sync.Mutex). Readers gate on the same
// channel: the first reader in takes the write token, the last reader
// out returns it, exactly as a conventional reader-preference RW lock
// does with plain mutexes -- channels just make the wait cancellable.
type entry struct {
	writeTok chan struct{}

	mu      sync.Mutex
	readers int
	refs    int
}

func newEntry() *entry {
	e := &entry{writeTok: make(chan struct{}, 1)}
	e.writeTok <- struct{}{}
	return e
}

func (e *entry) lockWrite(ctx context.Context) error {
	select {
	case <-e.writeTok:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) unlockWrite() {
	e.writeTok <- struct{}{}
}

func (e *entry) lockRead(ctx context.Context) error {
	e.mu.Lock()
	e.readers++
	first := e.readers == 1
	e.mu.Unlock()

	if !first {
		return nil
	}

	select {
	case <-e.writeTok:
		return nil
	case <-ctx.Done():
		e.mu.Lock()
		e.readers--
		e.mu.Unlock()
		return ctx.Err()
	}
}

func (e *entry) unlockRead() {
	e.mu.Lock()
	e.readers--
	last := e.readers == 0
	e.mu.Unlock()
	if last {
		e.writeTok <- struct{}{}
	}
}

// Registry maps a library id to its reader/writer lock, guarded by a
// short internal mutex covering only the map lookup itself -- never held
// while a per-library lock is being acquired or while a mutation runs.
type Registry struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

// New creates an empty lock registry.
func New() *Registry {
	return &Registry{locks: make(map[uuid.UUID]*entry)}
}

func (r *Registry) acquireEntry(id uuid.UUID) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.locks[id]
	if !ok {
		e = newEntry()
		r.locks[id] = e
	}
	e.refs++
	return e
}

func (r *Registry) releaseEntry(id uuid.UUID, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		if cur, ok := r.locks[id]; ok && cur == e {
			delete(r.locks, id)
		}
	}
}

// WriteLock acquires the write lock for id, blocking until it is free or
// ctx is done. On success it returns a release func that must be called
// exactly once to unlock; on cancellation it returns ctx.Err() and leaves
// no lock held.
func (r *Registry) WriteLock(ctx context.Context, id uuid.UUID) (func(), error) {
	e := r.acquireEntry(id)
	if err := e.lockWrite(ctx); err != nil {
		r.releaseEntry(id, e)
		return nil, err
	}
	return func() {
		e.unlockWrite()
		r.releaseEntry(id, e)
	}, nil
}

// ReadLock acquires the read lock for id, blocking until it is free of
// writers or ctx is done.
func (r *Registry) ReadLock(ctx context.Context, id uuid.UUID) (func(), error) {
	e := r.acquireEntry(id)
	if err := e.lockRead(ctx); err != nil {
		r.releaseEntry(id, e)
		return nil, err
	}
	return func() {
		e.unlockRead()
		r.releaseEntry(id, e)
	}, nil
}

// WriteLockOrdered acquires write locks on multiple libraries in
// ascending id order to prevent deadlock between operations that touch
// more than one library, such as moving a document across libraries.
// On partial failure it releases everything it acquired.
func (r *Registry) WriteLockOrdered(ctx context.Context, ids []uuid.UUID) (func(), error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	releases := make([]func(), 0, len(sorted))
	for _, id := range sorted {
		rel, err := r.WriteLock(ctx, id)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			return nil, err
		}
		releases = append(releases, rel)
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}
