// Package store provides in-memory repositories for libraries, documents,
// and chunks. Every repository returns deep copies on read so that
// released critical-section state cannot be mutated by the caller, and
// every repository shares the same optimistic CAS primitive: Get the
// entity, compute the next state, call CompareAndSwap with the version
// you read, retry on ErrStale.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

// ErrNotFound indicates the id has no entity in the repository.
var ErrNotFound = errors.New("store: not found")

// ErrStale indicates the entity's stored version no longer matches the
// caller's expected version; the caller should re-read and retry.
var ErrStale = errors.New("store: stale version")

// CompareAndSwap atomically looks up id in data, verifies its version
// equals expected, applies mutate to the stored entity in place, bumps
// its version/timestamp, and returns a deep copy of the new state.
//
// mutate runs while mu is held for writing; it must not block or touch
// anything outside the entity it is given.
func CompareAndSwap[T model.Versioned[T]](
	mu *sync.RWMutex,
	data map[uuid.UUID]T,
	id uuid.UUID,
	expected uint64,
	now time.Time,
	mutate func(current T) error,
) (T, error) {
	mu.Lock()
	defer mu.Unlock()

	var zero T
	cur, ok := data[id]
	if !ok {
		return zero, ErrNotFound
	}
	if cur.VersionNumber() != expected {
		return zero, ErrStale
	}
	if err := mutate(cur); err != nil {
		return zero, err
	}
	cur.Bump(now)
	data[id] = cur
	return cur.Clone(), nil
}
