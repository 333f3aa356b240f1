package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backend names accepted by offline.cache_backend
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendFile   = "file"
)

// Factory creates the configured CacheStorage
type Factory struct {
	offline       config.OfflineConfig
	storage       config.StorageConfig
	db            *gorm.DB
	redis         redis.UniversalClient
	logger        *zap.Logger
	allowFallback bool
	pingTimeout   time.Duration
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory and created backends
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithDatabase supplies the database used by the sqlite backend
func WithDatabase(db *gorm.DB) FactoryOption {
	return func(f *Factory) {
		f.db = db
	}
}

// WithRedisClient supplies the client used by the redis backend
func WithRedisClient(client redis.UniversalClient) FactoryOption {
	return func(f *Factory) {
		f.redis = client
	}
}

// WithInMemoryFallback controls whether an unreachable backend degrades to
// process memory instead of failing start-up. Default is false.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(offlineCfg config.OfflineConfig, storageCfg config.StorageConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		offline:     offlineCfg,
		storage:     storageCfg,
		logger:      zap.NewNop(),
		pingTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the backend named by offline.cache_backend
func (f *Factory) Create(ctx context.Context) (offline.CacheStorage, error) {
	backend := f.offline.CacheBackend
	if backend == "" {
		backend = BackendMemory
	}

	storage, err := f.create(ctx, backend)
	if err == nil {
		f.logger.Info("offline cache storage ready", zap.String("backend", backend))
		return storage, nil
	}
	if !f.allowFallback || backend == BackendMemory {
		return nil, err
	}
	f.logger.Warn("offline cache backend unavailable, falling back to memory. "+
		"Buckets will not be shared with other instances.",
		zap.String("backend", backend),
		zap.Error(err))
	return NewMemoryStorage(), nil
}

func (f *Factory) create(ctx context.Context, backend string) (offline.CacheStorage, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite:
		if f.db == nil {
			return nil, errors.New("sqlite cache backend needs a database")
		}
		s := NewGormStorage(f.db)
		if err := s.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate cache tables: %w", err)
		}
		return s, nil
	case BackendRedis:
		if f.redis == nil {
			return nil, errors.New("redis cache backend needs a client")
		}
		pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
		defer cancel()
		if err := f.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisStorage(f.redis, DefaultRedisNamespace+":"+f.offline.CachePrefix), nil
	case BackendS3:
		s, err := NewS3Storage(ctx, f.storage, WithS3Logger(f.logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		return NewFileStorage(f.offline.CacheDir, f.logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
