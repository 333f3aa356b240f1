package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresDatabase starts a PostgreSQL container. Skipped in -short
// mode and unless VENTAS_INTEGRATION is set.
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	if testing.Short() || os.Getenv("VENTAS_INTEGRATION") == "" {
		t.Skip("set VENTAS_INTEGRATION=1 to run PostgreSQL integration tests")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ventas_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("ventas"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "ventas",
		DBName:          "ventas_test",
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(ctx))
	return db
}

func TestPostgres_LedgerRoundTrip(t *testing.T) {
	db := newPostgresDatabase(t)
	ctx := context.Background()
	debtors := NewGormDebtorRepository(db.DB)
	sales := NewGormSaleRepository(db.DB)

	d := mustDebtor(t, debtors, "Rosa")
	sale, err := ledger.NewSale(d.ID, []ledger.ItemInput{
		{Product: "Harina", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("1.5")},
	}, ledger.CurrencyUSD, false, testNow)
	require.NoError(t, err)
	require.NoError(t, sales.Save(ctx, sale))

	pending, err := sales.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Total.Equal(decimal.RequireFromString("4.5")))

	found, total, err := sales.FindAll(ctx, ledger.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, found, 1)

	runVersionRecordSuite(t, NewGormVersionRecord(db.DB, "tab-pg"))
}
