package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds ledger policy switches
type Config struct {
	// ResetPaidOnRevert zeroes the paid amount when a delivered sale is
	// marked pending again.
	ResetPaidOnRevert bool
}

// Service handles debtor and sale operations
type Service struct {
	debtors ledger.DebtorRepository
	sales   ledger.SaleRepository
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new ledger Service
func NewService(debtors ledger.DebtorRepository, sales ledger.SaleRepository, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		debtors: debtors,
		sales:   sales,
		cfg:     cfg,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordSale upserts the debtor by name and records the sale
func (s *Service) RecordSale(ctx context.Context, req RecordSaleRequest) (*SaleResponse, error) {
	now := s.now()

	debtor, err := s.upsertDebtor(ctx, req.DebtorName, req.Phone, req.Notes, now)
	if err != nil {
		return nil, err
	}

	items := make([]ledger.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		in := ledger.ItemInput{
			Product:   it.Product,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if it.UnitPriceVES != nil {
			in.UnitPriceVES = decimal.NewNullDecimal(*it.UnitPriceVES)
		}
		items = append(items, in)
	}

	sale, err := ledger.NewSale(debtor.ID, items, ledger.Currency(req.Currency), req.Delivered, now)
	if err != nil {
		return nil, err
	}
	if err := s.sales.Save(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("debtor_id", debtor.ID.String()),
		zap.String("total", sale.Total.String()),
		zap.String("status", string(sale.Status)))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *Service) upsertDebtor(ctx context.Context, name, phone, notes string, now time.Time) (*ledger.Debtor, error) {
	existing, err := s.debtors.FindByName(ctx, name)
	switch {
	case err == nil:
		if existing.Merge(phone, notes, now) {
			if err := s.debtors.Save(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	debtor, err := ledger.NewDebtor(name, phone, notes, now)
	if err != nil {
		return nil, err
	}
	if err := s.debtors.Save(ctx, debtor); err != nil {
		return nil, err
	}
	return debtor, nil
}

// GetSale returns a sale by id
func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales returns sales newest first
func (s *Service) ListSales(ctx context.Context, req ListSalesRequest) (*shared.Paginated[SaleResponse], error) {
	filter := ledger.SaleFilter{
		Filter:   shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize(),
		DebtorID: req.DebtorID,
		Status:   ledger.SaleStatus(req.Status),
	}
	sales, total, err := s.sales.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, ToSaleResponse(&sales[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// RegisterPayment adds a payment to a sale
func (s *Service) RegisterPayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*SaleResponse, error) {
	return s.mutate(ctx, id, func(sale *ledger.Sale, now time.Time) error {
		return sale.RegisterPayment(req.Amount, now)
	})
}

// MarkDelivered settles a sale
func (s *Service) MarkDelivered(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	return s.mutate(ctx, id, func(sale *ledger.Sale, now time.Time) error {
		sale.MarkDelivered(now)
		return nil
	})
}

// MarkPending reverts a delivered sale, following Config.ResetPaidOnRevert
func (s *Service) MarkPending(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	return s.mutate(ctx, id, func(sale *ledger.Sale, now time.Time) error {
		sale.MarkPending(s.cfg.ResetPaidOnRevert, now)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*ledger.Sale, time.Time) error) (*SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sale, s.now()); err != nil {
		return nil, err
	}
	if err := s.sales.Save(ctx, sale); err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// DeleteSale removes a sale
func (s *Service) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, err := s.sales.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("sale deleted", zap.String("sale_id", id.String()))
	return nil
}

// SearchDebtors finds debtors by name fragment, sorted by name
func (s *Service) SearchDebtors(ctx context.Context, query string) ([]DebtorResponse, error) {
	debtors, err := s.debtors.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	sortDebtors(debtors)
	out := make([]DebtorResponse, 0, len(debtors))
	for i := range debtors {
		out = append(out, ToDebtorResponse(&debtors[i]))
	}
	return out, nil
}

// PendingBalances returns every debtor with pending sales, sorted by name
func (s *Service) PendingBalances(ctx context.Context) ([]DebtorBalance, error) {
	snap, err := s.PendingSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]DebtorBalance, 0, len(snap.Debtors))
	for _, d := range snap.Debtors {
		sales := snap.SalesByDebtor[d.ID]
		b := DebtorBalance{
			Debtor:       ToDebtorResponse(&d),
			PendingSales: len(sales),
			Pending:      decimal.Zero,
			Outstanding:  decimal.Zero,
		}
		oldest := now
		for _, sale := range sales {
			b.Pending = b.Pending.Add(sale.Total)
			b.Outstanding = b.Outstanding.Add(sale.Outstanding())
			if sale.CreatedAt.Before(oldest) {
				oldest = sale.CreatedAt
			}
		}
		b.OldestPendingDays = ledger.DaysSince(oldest, now)
		out = append(out, b)
	}
	return out, nil
}

// PendingSnapshot is the set of pending sales grouped by debtor
type PendingSnapshot struct {
	// Debtors with at least one pending sale, sorted by name
	Debtors       []ledger.Debtor
	SalesByDebtor map[uuid.UUID][]ledger.Sale
	GeneratedAt   time.Time
}

// PendingSnapshot loads the pending sales and their debtors
func (s *Service) PendingSnapshot(ctx context.Context) (*PendingSnapshot, error) {
	sales, err := s.sales.FindPending(ctx)
	if err != nil {
		return nil, err
	}
	byDebtor := make(map[uuid.UUID][]ledger.Sale)
	ids := make([]uuid.UUID, 0)
	for _, sale := range sales {
		if _, seen := byDebtor[sale.DebtorID]; !seen {
			ids = append(ids, sale.DebtorID)
		}
		byDebtor[sale.DebtorID] = append(byDebtor[sale.DebtorID], sale)
	}

	debtors := []ledger.Debtor{}
	if len(ids) > 0 {
		debtors, err = s.debtors.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	sortDebtors(debtors)
	return &PendingSnapshot{Debtors: debtors, SalesByDebtor: byDebtor, GeneratedAt: s.now()}, nil
}

func sortDebtors(debtors []ledger.Debtor) {
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Key() < debtors[j].Key()
	})
}
