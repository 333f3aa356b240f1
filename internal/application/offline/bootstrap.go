package offline

import (
	"context"
	"fmt"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"go.uber.org/zap"
)

// Mode selects how a foreground context sets up offline support.
type Mode string

const (
	// ModeProduction registers the versioned worker.
	ModeProduction Mode = "production"
	// ModeDevelopment removes every worker and bucket instead.
	ModeDevelopment Mode = "development"
)

// IsValid reports whether m is known
func (m Mode) IsValid() bool {
	return m == ModeProduction || m == ModeDevelopment
}

// WorkerRegistrar registers and unregisters workers by script URL.
type WorkerRegistrar interface {
	Register(ctx context.Context, scriptURL string) error
	Unregister(ctx context.Context) error
}

// BucketCleaner deletes every bucket under a prefix.
type BucketCleaner interface {
	DeletePrefix(ctx context.Context, prefix string) ([]string, error)
}

// BootstrapConfig holds the build-time values a foreground starts with.
type BootstrapConfig struct {
	Mode    Mode
	Version offline.VersionTag
	Prefix  string
}

// Bootstrap is the foreground start-up sequence.
type Bootstrap struct {
	cfg       BootstrapConfig
	registrar WorkerRegistrar
	cleaner   BucketCleaner
	record    VersionRecordStore
	board     PromptBoard
	logger    *zap.Logger
}

// NewBootstrap creates a bootstrap sequence
func NewBootstrap(cfg BootstrapConfig, registrar WorkerRegistrar, cleaner BucketCleaner, record VersionRecordStore, board PromptBoard, logger *zap.Logger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Version.IsZero() {
		cfg.Version = offline.DevVersion
	}
	return &Bootstrap{
		cfg:       cfg,
		registrar: registrar,
		cleaner:   cleaner,
		record:    record,
		board:     board,
		logger:    logger,
	}
}

// Start announces a version change since the last run, records the
// current version and then sets up offline support for the mode.
// Registration and cleanup failures are logged; the foreground keeps
// working without offline support.
func (b *Bootstrap) Start(ctx context.Context) error {
	if !b.cfg.Mode.IsValid() {
		return fmt.Errorf("unknown bootstrap mode %q", b.cfg.Mode)
	}

	b.recordVersion(ctx)

	switch b.cfg.Mode {
	case ModeProduction:
		scriptURL := offline.ScriptURL(b.cfg.Version)
		if err := b.registrar.Register(ctx, scriptURL); err != nil {
			b.logger.Warn("worker registration failed",
				zap.String("url", scriptURL),
				zap.Error(err))
			return nil
		}
		b.logger.Info("worker registered", zap.String("url", scriptURL))
	case ModeDevelopment:
		if err := b.registrar.Unregister(ctx); err != nil {
			b.logger.Warn("worker unregistration failed", zap.Error(err))
		}
		deleted, err := b.cleaner.DeletePrefix(ctx, b.cfg.Prefix)
		if err != nil {
			b.logger.Warn("cache cleanup failed", zap.String("prefix", b.cfg.Prefix), zap.Error(err))
		}
		b.logger.Info("development reset", zap.Strings("deleted", deleted))
	}
	return nil
}

func (b *Bootstrap) recordVersion(ctx context.Context) {
	previous, err := b.record.Load(ctx)
	if err != nil {
		b.logger.Warn("version record unreadable", zap.Error(err))
	}
	if !previous.IsZero() && previous != b.cfg.Version {
		b.board.Announce(fmt.Sprintf("Updated: %s → %s", previous, b.cfg.Version))
	}
	if err := b.record.Save(ctx, b.cfg.Version); err != nil {
		b.logger.Warn("version record not saved", zap.Error(err))
	}
}

// RegistryRegistrar registers workers on an in-process Registry.
type RegistryRegistrar struct {
	Registry *Registry
}

// Register implements WorkerRegistrar
func (r RegistryRegistrar) Register(ctx context.Context, scriptURL string) error {
	_, err := r.Registry.Register(ctx, offline.VersionFromScriptURL(scriptURL))
	return err
}

// Unregister implements WorkerRegistrar
func (r RegistryRegistrar) Unregister(ctx context.Context) error {
	r.Registry.Unregister(ctx)
	return nil
}

// StorageCleaner deletes buckets directly on a CacheStorage.
type StorageCleaner struct {
	Storage offline.CacheStorage
}

// DeletePrefix implements BucketCleaner
func (c StorageCleaner) DeletePrefix(ctx context.Context, prefix string) ([]string, error) {
	return PurgePrefix(ctx, c.Storage, prefix)
}
