package cachestore

import (
	"context"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	runStorageSuite(t, func(t *testing.T) offline.CacheStorage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_ClonesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	b, err := NewMemoryStorage().Open(ctx, "ventas-v1")
	require.NoError(t, err)

	resp := html("original")
	key := offline.KeyForPath("/")
	require.NoError(t, b.Put(ctx, key, resp))
	resp.Body[0] = 'X'

	got, _, err := b.Match(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got.Body))

	got.Body[0] = 'Y'
	again, _, err := b.Match(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "original", string(again.Body))
}
