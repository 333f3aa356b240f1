package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	debtors *GormDebtorRepository
	sales   *GormSaleRepository
}

func newSaleFixture(t *testing.T) saleFixture {
	db := newTestDatabase(t).DB
	return saleFixture{debtors: NewGormDebtorRepository(db), sales: NewGormSaleRepository(db)}
}

func (f saleFixture) sale(t *testing.T, debtorID uuid.UUID, at time.Time, delivered bool, lines ...string) *ledger.Sale {
	t.Helper()
	items := make([]ledger.ItemInput, 0, len(lines))
	for _, p := range lines {
		items = append(items, ledger.ItemInput{
			Product:   p,
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.RequireFromString("1.25"),
		})
	}
	s, err := ledger.NewSale(debtorID, items, ledger.CurrencyUSD, delivered, at)
	require.NoError(t, err)
	require.NoError(t, f.sales.Save(context.Background(), s))
	return s
}

func TestGormSaleRepository_SaveAndFind(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	d := mustDebtor(t, f.debtors, "Rosa")

	sale, err := ledger.NewSale(d.ID, []ledger.ItemInput{
		{Product: "Harina", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("1.5"),
			UnitPriceVES: decimal.NewNullDecimal(decimal.RequireFromString("54.75"))},
		{Product: "Queso", Quantity: decimal.RequireFromString("0.5"), UnitPrice: decimal.NewFromInt(6)},
	}, ledger.CurrencyVES, false, testNow)
	require.NoError(t, err)
	require.NoError(t, f.sales.Save(ctx, sale))

	got, err := f.sales.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.DebtorID)
	assert.Equal(t, ledger.CurrencyVES, got.Currency)
	assert.Equal(t, ledger.SaleStatusPending, got.Status)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("7.5")), "total %s", got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Harina", got.Items[0].Product)
	assert.True(t, got.Items[0].UnitPriceVES.Valid)
	assert.True(t, got.Items[0].UnitPriceVES.Decimal.Equal(decimal.RequireFromString("54.75")))
	assert.False(t, got.Items[1].UnitPriceVES.Valid)
	assert.Nil(t, got.DeliveredAt)
}

func TestGormSaleRepository_UpdateKeepsItems(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	d := mustDebtor(t, f.debtors, "Rosa")
	sale := f.sale(t, d.ID, testNow, false, "Pan", "Café")

	require.NoError(t, sale.RegisterPayment(sale.Total, testNow.Add(time.Hour)))
	require.NoError(t, f.sales.Save(ctx, sale))

	got, err := f.sales.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SaleStatusDelivered, got.Status)
	assert.True(t, got.Paid.Equal(got.Total))
	assert.NotNil(t, got.DeliveredAt)
	assert.Equal(t, 2, got.Version)
	assert.Len(t, got.Items, 2)
}

func TestGormSaleRepository_FindByIDNotFound(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.sales.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSaleRepository_FindAll(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	rosa := mustDebtor(t, f.debtors, "Rosa")
	juan := mustDebtor(t, f.debtors, "Juan")

	oldest := f.sale(t, rosa.ID, testNow, false, "Pan")
	f.sale(t, juan.ID, testNow.Add(time.Hour), true, "Leche")
	newest := f.sale(t, rosa.ID, testNow.Add(2*time.Hour), false, "Arroz")

	t.Run("newest first with total", func(t *testing.T) {
		got, total, err := f.sales.FindAll(ctx, ledger.SaleFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 3)
		assert.Equal(t, newest.ID, got[0].ID)
		assert.Equal(t, oldest.ID, got[2].ID)
		assert.Len(t, got[0].Items, 1)
	})

	t.Run("by debtor", func(t *testing.T) {
		got, total, err := f.sales.FindAll(ctx, ledger.SaleFilter{DebtorID: &rosa.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, got, 2)
	})

	t.Run("by status", func(t *testing.T) {
		got, total, err := f.sales.FindAll(ctx, ledger.SaleFilter{Status: ledger.SaleStatusDelivered})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, juan.ID, got[0].DebtorID)
	})

	t.Run("search by debtor name", func(t *testing.T) {
		got, total, err := f.sales.FindAll(ctx, ledger.SaleFilter{Filter: shared.Filter{Search: "ROS"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, got, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		got, total, err := f.sales.FindAll(ctx, ledger.SaleFilter{Filter: shared.Filter{Page: 2, PageSize: 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 1)
		assert.Equal(t, oldest.ID, got[0].ID)
	})
}

func TestGormSaleRepository_FindPending(t *testing.T) {
	f := newSaleFixture(t)
	d := mustDebtor(t, f.debtors, "Rosa")
	f.sale(t, d.ID, testNow, true, "Pan")
	pending := f.sale(t, d.ID, testNow.Add(time.Minute), false, "Café")

	got, err := f.sales.FindPending(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)
}

func TestGormSaleRepository_Delete(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	d := mustDebtor(t, f.debtors, "Rosa")
	sale := f.sale(t, d.ID, testNow, false, "Pan")

	require.NoError(t, f.sales.Delete(ctx, sale.ID))
	_, err := f.sales.FindByID(ctx, sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.sales.Delete(ctx, sale.ID), shared.ErrNotFound)
}
