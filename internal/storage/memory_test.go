package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	var store BlobStore = NewMemoryStore()

	data := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, store.Put(ctx, "images/abcd", data))

	// the store keeps its own copy
	data[0] = 0
	got, err := store.Get(ctx, "images/abcd")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got)

	require.NoError(t, store.Delete(ctx, "images/abcd"))
	_, err = store.Get(ctx, "images/abcd")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing object is not an error
	assert.NoError(t, store.Delete(ctx, "images/abcd"))
}
