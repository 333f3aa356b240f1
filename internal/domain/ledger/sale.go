package ledger

import (
	"strings"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents whether a sale has been settled
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusDelivered SaleStatus = "delivered"
)

// Currency is the currency a sale was entered in. Amounts are always held
// in USD; VES sales keep the original unit price alongside.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyVES Currency = "VES"
)

// IsValid reports whether c is supported
func (c Currency) IsValid() bool {
	return c == CurrencyUSD || c == CurrencyVES
}

// ErrOverpayment is returned when a payment exceeds the outstanding amount
var ErrOverpayment = shared.NewDomainError("OVERPAYMENT", "Payment exceeds the outstanding amount")

// SaleItem is one line of a sale
type SaleItem struct {
	ID           uuid.UUID
	Product      string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	UnitPriceVES decimal.NullDecimal
}

// Total returns quantity × unit price in USD
func (i SaleItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// TotalVES returns quantity × the original VES unit price, falling back to
// the USD unit price when none was recorded.
func (i SaleItem) TotalVES() decimal.Decimal {
	unit := i.UnitPrice
	if i.UnitPriceVES.Valid {
		unit = i.UnitPriceVES.Decimal
	}
	return i.Quantity.Mul(unit)
}

// ItemInput describes a line to add to a new sale
type ItemInput struct {
	Product      string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	UnitPriceVES decimal.NullDecimal
}

// Sale is the aggregate root for a debtor's purchase
type Sale struct {
	shared.BaseAggregateRoot
	DebtorID    uuid.UUID
	Items       []SaleItem
	Total       decimal.Decimal
	Paid        decimal.Decimal
	Status      SaleStatus
	Currency    Currency
	DeliveredAt *time.Time
}

// NewSale creates a sale for debtorID. The total is the sum of the line
// totals; delivered sales are stamped at now.
func NewSale(debtorID uuid.UUID, items []ItemInput, currency Currency, delivered bool, now time.Time) (*Sale, error) {
	if debtorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEBTOR", "Sale requires a debtor")
	}
	if currency == "" {
		currency = CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be USD or VES")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Sale requires at least one item")
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		DebtorID:          debtorID,
		Items:             make([]SaleItem, 0, len(items)),
		Total:             decimal.Zero,
		Paid:              decimal.Zero,
		Status:            SaleStatusPending,
		Currency:          currency,
	}
	for _, in := range items {
		item, err := newSaleItem(in, currency)
		if err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
		sale.Total = sale.Total.Add(item.Total())
	}
	if delivered {
		sale.markDelivered(now)
	}
	return sale, nil
}

func newSaleItem(in ItemInput, currency Currency) (SaleItem, error) {
	product := strings.TrimSpace(in.Product)
	if product == "" {
		return SaleItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return SaleItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return SaleItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	item := SaleItem{
		ID:        uuid.New(),
		Product:   product,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
	}
	if currency == CurrencyVES && in.UnitPriceVES.Valid {
		if in.UnitPriceVES.Decimal.IsNegative() {
			return SaleItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		item.UnitPriceVES = in.UnitPriceVES
	}
	return item, nil
}

// IsPending reports whether the sale is not yet delivered
func (s *Sale) IsPending() bool {
	return s.Status != SaleStatusDelivered
}

// Outstanding returns total minus paid
func (s *Sale) Outstanding() decimal.Decimal {
	return s.Total.Sub(s.Paid)
}

// SubtotalVES returns the sale amount in the original VES prices. Sales
// entered in USD have no VES amount.
func (s *Sale) SubtotalVES() decimal.Decimal {
	if s.Currency != CurrencyVES {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.TotalVES())
	}
	return sum
}

// RegisterPayment adds amount to the paid total. Paying the full amount
// settles the sale.
func (s *Sale) RegisterPayment(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if s.Paid.Add(amount).GreaterThan(s.Total) {
		return ErrOverpayment
	}
	s.Paid = s.Paid.Add(amount)
	if s.Paid.Equal(s.Total) && s.IsPending() {
		s.markDelivered(now)
	}
	s.Touch(now)
	s.IncrementVersion()
	return nil
}

// MarkDelivered settles the sale. Already delivered sales are unchanged.
func (s *Sale) MarkDelivered(now time.Time) {
	if !s.IsPending() {
		return
	}
	s.markDelivered(now)
	s.Touch(now)
	s.IncrementVersion()
}

func (s *Sale) markDelivered(now time.Time) {
	s.Status = SaleStatusDelivered
	delivered := now
	s.DeliveredAt = &delivered
}

// MarkPending reverts a delivered sale. With resetPaid the paid amount goes
// back to zero; otherwise it is kept.
func (s *Sale) MarkPending(resetPaid bool, now time.Time) {
	if s.IsPending() {
		return
	}
	s.Status = SaleStatusPending
	s.DeliveredAt = nil
	if resetPaid {
		s.Paid = decimal.Zero
	}
	s.Touch(now)
	s.IncrementVersion()
}

// DaysSince returns the whole days elapsed from t to now, never negative
func DaysSince(t, now time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t) / (24 * time.Hour))
}
