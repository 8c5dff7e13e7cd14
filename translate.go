package vectordb

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/store"
)

// translateStoreErr maps a store-layer error to the package's transport
// agnostic error vocabulary, naming the entity and id that failed.
func translateStoreErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("%s %s not found", entity, id), entity+"_id")
	}
	return NewInternalError(err.Error())
}

// translateCASErr maps a CompareAndSwap error, distinguishing a version
// conflict (retryable by the caller) from a disappeared entity.
func translateCASErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, store.ErrStale) {
		return NewConflictError(fmt.Sprintf("%s %s was modified concurrently", entity, id), entity+"_id")
	}
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("%s %s not found", entity, id), entity+"_id")
	}
	return NewInternalError(err.Error())
}
