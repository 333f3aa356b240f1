package cachestore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGormStorage(t *testing.T) {
	runStorageSuite(t, func(t *testing.T) offline.CacheStorage {
		s := NewGormStorage(newTestDB(t))
		require.NoError(t, s.AutoMigrate(context.Background()))
		return s
	})
}
