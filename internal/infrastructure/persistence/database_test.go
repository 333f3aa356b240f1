package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDatabase opens a migrated in-memory SQLite database
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(context.Background()))
	return db
}

func TestNewDatabase_SQLite(t *testing.T) {
	db := newTestDatabase(t)

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	for _, m := range models.All() {
		assert.True(t, db.DB.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
}

func TestDatabase_Transaction(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(ctx, func(tx *gorm.DB) error {
		rec := models.VersionRecordModel{ClientID: "tab-1", Version: "v1"}
		require.NoError(t, tx.Create(&rec).Error)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.DB.Model(&models.VersionRecordModel{}).Count(&count).Error)
	assert.Zero(t, count, "rolled back insert must not persist")
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "file::memory:?_foreign_keys=on"},
		{":memory:", "file::memory:?_foreign_keys=on"},
		{"ventas.db", "file:ventas.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}
