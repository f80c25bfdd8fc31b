package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoragePutGetDelete(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	obj, err := s.Put(ctx, "docs/a.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)
	assert.NotEmpty(t, obj.ETag)

	r, err := s.Get(ctx, "docs/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	url, err := s.PresignGet(ctx, "docs/a.txt", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "docs/a.txt")

	require.NoError(t, s.Delete(ctx, "docs/a.txt"))
	_, err = s.Get(ctx, "docs/a.txt")
	assert.Error(t, err)
}

func TestMemoryStorageGetMissingKeyErrors(t *testing.T) {
	s := NewMemoryStorage()
	_, err := s.Get(context.Background(), "missing")
	assert.Error(t, err)
}
