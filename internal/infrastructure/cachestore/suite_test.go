package cachestore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func html(body string) *offline.StoredResponse {
	return &offline.StoredResponse{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:     []byte(body),
		StoredAt: storedAt,
	}
}

// runStorageSuite checks the behavior every backend shares.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) offline.CacheStorage) {
	ctx := context.Background()
	index := offline.KeyForPath("/index.html")
	icon := offline.KeyForPath("/icon.png")

	t.Run("open registers bucket", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.Open(ctx, "ventas-v2")
		require.NoError(t, err)
		_, err = s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		_, err = s.Open(ctx, "ventas-v1")
		require.NoError(t, err)

		names, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ventas-v1", "ventas-v2"}, names)
	})

	t.Run("put and match", func(t *testing.T) {
		s := newStorage(t)
		b, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)

		_, ok, err := b.Match(ctx, index)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, b.Put(ctx, index, html("<html>v1</html>")))
		got, ok, err := b.Match(ctx, index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, got.Status)
		assert.Equal(t, "text/html; charset=utf-8", got.Header.Get("Content-Type"))
		assert.Equal(t, "<html>v1</html>", string(got.Body))
		assert.True(t, storedAt.Equal(got.StoredAt))
	})

	t.Run("last write wins", func(t *testing.T) {
		s := newStorage(t)
		b, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		require.NoError(t, b.Put(ctx, index, html("first")))
		require.NoError(t, b.Put(ctx, index, html("second")))

		got, ok, err := b.Match(ctx, index)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", string(got.Body))
	})

	t.Run("keys and delete entry", func(t *testing.T) {
		s := newStorage(t)
		b, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		require.NoError(t, b.Put(ctx, index, html("i")))
		require.NoError(t, b.Put(ctx, icon, html("p")))

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []offline.RequestKey{icon, index}, keys)

		removed, err := b.Delete(ctx, icon)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = b.Delete(ctx, icon)
		require.NoError(t, err)
		assert.False(t, removed)

		keys, err = b.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []offline.RequestKey{index}, keys)
	})

	t.Run("buckets are isolated", func(t *testing.T) {
		s := newStorage(t)
		v1, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		v2, err := s.Open(ctx, "ventas-v2")
		require.NoError(t, err)
		require.NoError(t, v1.Put(ctx, index, html("v1")))

		_, ok, err := v2.Match(ctx, index)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete bucket", func(t *testing.T) {
		s := newStorage(t)
		b, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		require.NoError(t, b.Put(ctx, index, html("v1")))

		deleted, err := s.Delete(ctx, "ventas-v1")
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = s.Delete(ctx, "ventas-v1")
		require.NoError(t, err)
		assert.False(t, deleted)

		names, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		reopened, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		_, ok, err := reopened.Match(ctx, index)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("writes after delete are dropped", func(t *testing.T) {
		s := newStorage(t)
		b, err := s.Open(ctx, "ventas-v1")
		require.NoError(t, err)
		_, err = s.Delete(ctx, "ventas-v1")
		require.NoError(t, err)

		require.NoError(t, b.Put(ctx, index, html("late")))

		names, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("rejects unsafe names", func(t *testing.T) {
		s := newStorage(t)
		for _, name := range []string{"", "..", "a/b"} {
			_, err := s.Open(ctx, name)
			assert.Error(t, err, name)
		}
	})
}
