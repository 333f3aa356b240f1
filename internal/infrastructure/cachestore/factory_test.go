package cachestore

import (
	"context"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, err := NewFactory(config.OfflineConfig{}, config.StorageConfig{}).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStorage{}, s)
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.OfflineConfig{CacheBackend: BackendFile, CacheDir: t.TempDir()}
		s, err := NewFactory(cfg, config.StorageConfig{}).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &FileStorage{}, s)
	})

	t.Run("sqlite migrates tables", func(t *testing.T) {
		db := newTestDB(t)
		cfg := config.OfflineConfig{CacheBackend: BackendSQLite}
		s, err := NewFactory(cfg, config.StorageConfig{}, WithDatabase(db)).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &GormStorage{}, s)
		assert.True(t, db.Migrator().HasTable(&CacheEntryModel{}))
	})

	t.Run("sqlite without database", func(t *testing.T) {
		cfg := config.OfflineConfig{CacheBackend: BackendSQLite}
		_, err := NewFactory(cfg, config.StorageConfig{}).Create(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.OfflineConfig{CacheBackend: "tape"}
		_, err := NewFactory(cfg, config.StorageConfig{}).Create(ctx)
		assert.ErrorContains(t, err, "unknown cache backend")
	})
}

func TestFactory_RedisFallback(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer func() { _ = client.Close() }()
	cfg := config.OfflineConfig{CacheBackend: BackendRedis, CachePrefix: "ventas"}

	_, err := NewFactory(cfg, config.StorageConfig{}, WithRedisClient(client)).Create(ctx)
	require.Error(t, err)

	s, err := NewFactory(cfg, config.StorageConfig{},
		WithRedisClient(client),
		WithInMemoryFallback(true),
	).Create(ctx)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)
}
