package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/filelock"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVersionRecord stores one client's last seen version in the database
type GormVersionRecord struct {
	db       *gorm.DB
	clientID string
	now      func() time.Time
}

// NewGormVersionRecord creates a record keyed by clientID
func NewGormVersionRecord(db *gorm.DB, clientID string) *GormVersionRecord {
	return &GormVersionRecord{db: db, clientID: clientID, now: time.Now}
}

// Load returns an empty tag when nothing was stored yet
func (r *GormVersionRecord) Load(ctx context.Context) (offline.VersionTag, error) {
	var model models.VersionRecordModel
	err := r.db.WithContext(ctx).First(&model, "client_id = ?", r.clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load version record: %w", err)
	}
	return offline.VersionTag(model.Version), nil
}

// Save upserts the record
func (r *GormVersionRecord) Save(ctx context.Context, v offline.VersionTag) error {
	model := models.VersionRecordModel{ClientID: r.clientID, Version: v.String(), UpdatedAt: r.now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save version record: %w", err)
	}
	return nil
}

// FileVersionRecord stores the version as a single line in a file. A
// sibling lock file serializes ventasctl processes sharing it.
type FileVersionRecord struct {
	path   string
	logger *zap.Logger
}

// NewFileVersionRecord creates a record at path
func NewFileVersionRecord(path string, logger *zap.Logger) *FileVersionRecord {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileVersionRecord{path: path, logger: logger}
}

func (r *FileVersionRecord) lockPath() string {
	return r.path + ".lock"
}

// Load returns an empty tag when the file does not exist
func (r *FileVersionRecord) Load(ctx context.Context) (offline.VersionTag, error) {
	fl, err := filelock.RLock(ctx, r.lockPath())
	if err != nil {
		return "", err
	}
	defer filelock.Release(r.logger, fl)

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read version record: %w", err)
	}
	return offline.VersionTag(strings.TrimSpace(string(data))), nil
}

// Save atomically replaces the file
func (r *FileVersionRecord) Save(ctx context.Context, v offline.VersionTag) error {
	fl, err := filelock.Lock(ctx, r.lockPath())
	if err != nil {
		return err
	}
	defer filelock.Release(r.logger, fl)

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save version record: %w", err)
	}
	if _, err := tmp.WriteString(v.String() + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save version record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save version record: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save version record: %w", err)
	}
	return nil
}
