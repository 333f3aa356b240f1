package report

import (
	"context"
	"errors"
	"testing"
	"time"

	appledger "github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(product, qty, unit string) ledger.ItemInput {
	return ledger.ItemInput{Product: product, Quantity: dec(qty), UnitPrice: dec(unit)}
}

func mustDebtor(t *testing.T, name string) *ledger.Debtor {
	t.Helper()
	d, err := ledger.NewDebtor(name, "", "", generatedAt)
	require.NoError(t, err)
	return d
}

func mustSale(t *testing.T, debtor uuid.UUID, currency ledger.Currency, at time.Time, items ...ledger.ItemInput) ledger.Sale {
	t.Helper()
	s, err := ledger.NewSale(debtor, items, currency, false, at)
	require.NoError(t, err)
	return *s
}

// sampleSnapshot has two debtors; bruno owes one USD and one VES sale
func sampleSnapshot(t *testing.T) *appledger.PendingSnapshot {
	t.Helper()
	ana := mustDebtor(t, "Ana")
	bruno := mustDebtor(t, "bruno")

	arroz := line("Arroz", "3", "1.20")
	arroz.UnitPriceVES = decimal.NewNullDecimal(dec("43.80"))

	return &appledger.PendingSnapshot{
		Debtors: []ledger.Debtor{*ana, *bruno},
		SalesByDebtor: map[uuid.UUID][]ledger.Sale{
			ana.ID: {
				mustSale(t, ana.ID, ledger.CurrencyUSD, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
					line("Televisor", "1", "1250")),
			},
			bruno.ID: {
				mustSale(t, bruno.ID, ledger.CurrencyVES, time.Date(2024, 1, 9, 18, 5, 0, 0, time.UTC), arroz),
				mustSale(t, bruno.ID, ledger.CurrencyUSD, time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
					line("Harina", "2", "1.50"), line("Queso", "0.5", "8")),
			},
		},
		GeneratedAt: generatedAt,
	}
}

func newTestRenderer(t *testing.T) *HTMLRenderer {
	t.Helper()
	f, err := NewFormatter("en-US", time.UTC)
	require.NoError(t, err)
	r, err := NewHTMLRenderer(f)
	require.NoError(t, err)
	return r
}

func TestBuildPendingReport(t *testing.T) {
	report := BuildPendingReport(sampleSnapshot(t))

	assert.Equal(t, PendingTitle, report.Title)
	assert.Equal(t, 2, report.DebtorCount)
	assert.Equal(t, 3, report.SaleCount)
	assert.True(t, dec("1260.60").Equal(report.Total), report.Total.String())
	require.Len(t, report.Sections, 2)

	ana, bruno := report.Sections[0], report.Sections[1]
	assert.Equal(t, "Ana", ana.DebtorName)
	assert.True(t, ana.SubtotalVES.IsZero())

	assert.Equal(t, "bruno", bruno.DebtorName)
	assert.Equal(t, 2, bruno.Sales)
	assert.True(t, dec("10.60").Equal(bruno.Subtotal))
	assert.True(t, dec("131.40").Equal(bruno.SubtotalVES))
	require.Len(t, bruno.Rows, 3)
	assert.True(t, bruno.Rows[0].UnitVES.Valid)
	assert.False(t, bruno.Rows[1].UnitVES.Valid, "USD sales have no VES amounts")

	assert.Equal(t, "pendientes-20240110-1500.pdf", report.Filename("pdf"))
}

func TestBuildPendingReport_UnknownDebtor(t *testing.T) {
	orphan := uuid.New()
	snap := &appledger.PendingSnapshot{
		SalesByDebtor: map[uuid.UUID][]ledger.Sale{
			orphan: {mustSale(t, orphan, "", generatedAt, line("Pan", "1", "2"))},
		},
		GeneratedAt: generatedAt,
	}

	report := BuildPendingReport(snap)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, "Cliente", report.Sections[0].DebtorName)
	assert.Equal(t, 1, report.DebtorCount)
}

func TestFormatter(t *testing.T) {
	f, err := NewFormatter("en-US", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "$1,234.50", f.USD(dec("1234.5")))
	assert.Equal(t, "$0.00", f.USD(decimal.Zero))
	assert.Equal(t, "Bs 1234.50", f.VES(dec("1234.5")))
	assert.Equal(t, "10/01/2024 15:00", f.Date(generatedAt))
	assert.Equal(t, "VES", f.Code("VES"))
	assert.Equal(t, "VES", f.Code(" ves "))
	assert.Equal(t, "USD", f.Code(""))
	assert.Equal(t, "EUR", f.Code("eur"))
	assert.Equal(t, "XYZ", f.Code("xyz"), "unknown codes are not relabeled")

	_, err = NewFormatter("not a locale!", nil)
	assert.Error(t, err)
}

func TestHTMLRenderer_Golden(t *testing.T) {
	r := newTestRenderer(t)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("pending", func(t *testing.T) {
		out, err := r.RenderBytes(BuildPendingReport(sampleSnapshot(t)))
		require.NoError(t, err)
		g.Assert(t, "pending", out)
	})

	t.Run("empty", func(t *testing.T) {
		empty := &appledger.PendingSnapshot{GeneratedAt: generatedAt}
		out, err := r.RenderBytes(BuildPendingReport(empty))
		require.NoError(t, err)
		g.Assert(t, "pending_empty", out)
	})
}

func TestHTMLRenderer_EscapesNames(t *testing.T) {
	r := newTestRenderer(t)
	d := mustDebtor(t, "<script>Eve</script>")
	snap := &appledger.PendingSnapshot{
		Debtors:       []ledger.Debtor{*d},
		SalesByDebtor: map[uuid.UUID][]ledger.Sale{d.ID: {mustSale(t, d.ID, "", generatedAt, line("Pan", "1", "1"))}},
		GeneratedAt:   generatedAt,
	}

	out, err := r.RenderBytes(BuildPendingReport(snap))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;Eve&lt;/script&gt;")
}

// =============================================================================
// Service
// =============================================================================

type stubSource struct {
	snap *appledger.PendingSnapshot
	err  error
}

func (s stubSource) PendingSnapshot(context.Context) (*appledger.PendingSnapshot, error) {
	return s.snap, s.err
}

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	return m.Called().Error(0)
}

func TestService_PendingHTML(t *testing.T) {
	svc := NewService(stubSource{snap: sampleSnapshot(t)}, newTestRenderer(t))

	doc, err := svc.PendingHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pendientes-20240110-1500.html", doc.Filename)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Data), "<h2>bruno</h2>")
}

func TestService_PendingPDF(t *testing.T) {
	ctx := context.Background()
	pdf := new(MockPDFRenderer)
	pdf.On("Render", mock.Anything, mock.MatchedBy(func(req *printing.RenderRequest) bool {
		return req.Title == PendingTitle &&
			req.PaperSize == printing.PaperSizeA4 &&
			req.FooterHTML != ""
	})).Return(&printing.RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 2}, nil)

	svc := NewService(stubSource{snap: sampleSnapshot(t)}, newTestRenderer(t), WithPDFRenderer(pdf))
	doc, err := svc.PendingPDF(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pendientes-20240110-1500.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Data)
	pdf.AssertExpectations(t)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no pdf renderer", func(t *testing.T) {
		svc := NewService(stubSource{snap: sampleSnapshot(t)}, newTestRenderer(t))
		_, err := svc.PendingPDF(ctx)
		assert.ErrorIs(t, err, ErrPDFUnavailable)
	})

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("db down")
		svc := NewService(stubSource{err: boom}, newTestRenderer(t))
		_, err := svc.PendingHTML(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("renderer failure", func(t *testing.T) {
		pdf := new(MockPDFRenderer)
		pdf.On("Render", mock.Anything, mock.Anything).Return(nil, printing.NewRenderError(printing.ErrCodeRenderFailed, "chrome crashed", nil))
		svc := NewService(stubSource{snap: sampleSnapshot(t)}, newTestRenderer(t), WithPDFRenderer(pdf))
		_, err := svc.PendingPDF(ctx)
		var renderErr *printing.RenderError
		assert.ErrorAs(t, err, &renderErr)
	})
}
