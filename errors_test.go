package vectordb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vectordb "github.com/Kshitij-Bakliwal/vector-db-api"
)

func TestFieldErrorUnwrapsToKind(t *testing.T) {
	err := vectordb.NewValidationError("name", "must not be empty")
	assert.ErrorIs(t, err, vectordb.ErrValidation)
	assert.Contains(t, err.Error(), "name")
}

func TestNewNotFoundErrorUnwraps(t *testing.T) {
	err := vectordb.NewNotFoundError("library missing", "library_id")
	assert.ErrorIs(t, err, vectordb.ErrNotFound)
}

func TestNewConflictErrorUnwraps(t *testing.T) {
	err := vectordb.NewConflictError("version moved", "chunk_id")
	assert.ErrorIs(t, err, vectordb.ErrConflict)
}

func TestNewInternalErrorUnwraps(t *testing.T) {
	err := vectordb.NewInternalError("boom")
	assert.ErrorIs(t, err, vectordb.ErrInternal)
}

func TestIsHelperMatchesSentinel(t *testing.T) {
	err := vectordb.NewValidationError("field", "bad")
	assert.True(t, vectordb.Is(err, vectordb.ErrValidation))
	assert.False(t, vectordb.Is(err, vectordb.ErrNotFound))
}
