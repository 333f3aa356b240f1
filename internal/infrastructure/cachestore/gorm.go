package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheBucketModel registers one bucket name
type CacheBucketModel struct {
	Name      string    `gorm:"primaryKey;size:255"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CacheBucketModel) TableName() string {
	return "offline_cache_buckets"
}

// CacheEntryModel is one stored response
type CacheEntryModel struct {
	Bucket   string    `gorm:"primaryKey;size:255"`
	Method   string    `gorm:"primaryKey;size:16"`
	URL      string    `gorm:"primaryKey;size:2048"`
	Status   int       `gorm:"not null"`
	Header   []byte
	Body     []byte
	StoredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CacheEntryModel) TableName() string {
	return "offline_cache_entries"
}

func entryModelFrom(bucket string, key offline.RequestKey, resp *offline.StoredResponse) (*CacheEntryModel, error) {
	m := &CacheEntryModel{
		Bucket:   bucket,
		Method:   key.Method,
		URL:      key.URL,
		Status:   resp.Status,
		Body:     resp.Body,
		StoredAt: resp.StoredAt,
	}
	if len(resp.Header) > 0 {
		h, err := json.Marshal(resp.Header)
		if err != nil {
			return nil, fmt.Errorf("encode header for %s: %w", key, err)
		}
		m.Header = h
	}
	return m, nil
}

func (m *CacheEntryModel) toStored() (*offline.StoredResponse, error) {
	resp := &offline.StoredResponse{
		Status:   m.Status,
		Body:     m.Body,
		StoredAt: m.StoredAt,
	}
	if len(m.Header) > 0 {
		if err := json.Unmarshal(m.Header, &resp.Header); err != nil {
			return nil, fmt.Errorf("decode header for %s %s: %w", m.Method, m.URL, err)
		}
	}
	return resp, nil
}

// GormStorage keeps buckets in two tables of the application database.
type GormStorage struct {
	db *gorm.DB
}

var _ offline.CacheStorage = (*GormStorage)(nil)

// NewGormStorage creates a storage on db
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// AutoMigrate creates the cache tables
func (s *GormStorage) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&CacheBucketModel{}, &CacheEntryModel{})
}

// Open implements offline.CacheStorage
func (s *GormStorage) Open(ctx context.Context, name string) (offline.Bucket, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CacheBucketModel{Name: name, CreatedAt: time.Now()}).Error
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &gormBucket{db: s.db, name: name}, nil
}

// Keys implements offline.CacheStorage
func (s *GormStorage) Keys(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&CacheBucketModel{}).Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	return names, nil
}

// Delete implements offline.CacheStorage
func (s *GormStorage) Delete(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", name).Delete(&CacheBucketModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return tx.Where("bucket = ?", name).Delete(&CacheEntryModel{}).Error
	})
	if err != nil {
		return false, fmt.Errorf("delete bucket %s: %w", name, err)
	}
	return deleted, nil
}

type gormBucket struct {
	db   *gorm.DB
	name string
}

func (b *gormBucket) Match(ctx context.Context, key offline.RequestKey) (*offline.StoredResponse, bool, error) {
	var m CacheEntryModel
	err := b.db.WithContext(ctx).
		Where("bucket = ? AND method = ? AND url = ?", b.name, key.Method, key.URL).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s in %s: %w", key, b.name, err)
	}
	resp, err := m.toStored()
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// Put upserts the entry. Writes to a bucket deleted after Open are dropped.
func (b *gormBucket) Put(ctx context.Context, key offline.RequestKey, resp *offline.StoredResponse) error {
	m, err := entryModelFrom(b.name, key, resp)
	if err != nil {
		return err
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&CacheBucketModel{}).Where("name = ?", b.name).Count(&count).Error; err != nil {
			return fmt.Errorf("put %s in %s: %w", key, b.name, err)
		}
		if count == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bucket"}, {Name: "method"}, {Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "header", "body", "stored_at"}),
		}).Create(m).Error
		if err != nil {
			return fmt.Errorf("put %s in %s: %w", key, b.name, err)
		}
		return nil
	})
}

func (b *gormBucket) Delete(ctx context.Context, key offline.RequestKey) (bool, error) {
	res := b.db.WithContext(ctx).
		Where("bucket = ? AND method = ? AND url = ?", b.name, key.Method, key.URL).
		Delete(&CacheEntryModel{})
	if res.Error != nil {
		return false, fmt.Errorf("delete %s from %s: %w", key, b.name, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (b *gormBucket) Keys(ctx context.Context) ([]offline.RequestKey, error) {
	var rows []CacheEntryModel
	err := b.db.WithContext(ctx).
		Select("method", "url").
		Where("bucket = ?", b.name).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list keys of %s: %w", b.name, err)
	}
	keys := make([]offline.RequestKey, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, offline.RequestKey{Method: r.Method, URL: r.URL})
	}
	sortKeys(keys)
	return keys, nil
}
