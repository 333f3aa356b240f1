package filelock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")

	first, err := Lock(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = Lock(ctx, path)
	require.Error(t, err)

	Release(zap.NewNop(), first)

	second, err := Lock(context.Background(), path)
	require.NoError(t, err)
	Release(zap.NewNop(), second)
}

func TestRLock_Shared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")

	a, err := RLock(context.Background(), path)
	require.NoError(t, err)
	b, err := RLock(context.Background(), path)
	require.NoError(t, err)

	Release(zap.NewNop(), a)
	Release(zap.NewNop(), b)
}

func TestRelease_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Release(zap.NewNop(), nil) })
}
