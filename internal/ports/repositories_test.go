package ports

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNoteCacheKey(t *testing.T) {
	id := uuid.MustParse("7f8d5f4e-3c1b-4f7a-9a51-0a9c2d0e6b11")
	assert.Equal(t, "note:7f8d5f4e-3c1b-4f7a-9a51-0a9c2d0e6b11", NoteCacheKey(id))
}
