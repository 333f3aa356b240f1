package ledger

import (
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// SaleItemRequest is one line of a new sale
type SaleItemRequest struct {
	Product      string           `json:"product" binding:"required,min=1,max=200"`
	Quantity     decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	UnitPriceVES *decimal.Decimal `json:"unit_price_ves"`
}

// RecordSaleRequest records a sale for a debtor, creating the debtor when
// no existing one matches the name.
type RecordSaleRequest struct {
	DebtorName string            `json:"debtor_name" binding:"required,min=1,max=200"`
	Phone      string            `json:"phone" binding:"max=50"`
	Notes      string            `json:"notes" binding:"max=1000"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Delivered  bool              `json:"delivered"`
	Currency   string            `json:"currency" binding:"omitempty,oneof=USD VES"`
}

// PaymentRequest registers a payment against a sale
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ListSalesRequest filters the sale listing. DebtorID is parsed by the
// handler from the debtor_id query parameter.
type ListSalesRequest struct {
	DebtorID *uuid.UUID `form:"-"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending delivered"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// DebtorResponse represents a debtor in API responses
type DebtorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID           uuid.UUID        `json:"id"`
	Product      string           `json:"product"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	UnitPriceVES *decimal.Decimal `json:"unit_price_ves,omitempty"`
	Total        decimal.Decimal  `json:"total"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID          uuid.UUID          `json:"id"`
	DebtorID    uuid.UUID          `json:"debtor_id"`
	Items       []SaleItemResponse `json:"items"`
	Total       decimal.Decimal    `json:"total"`
	Paid        decimal.Decimal    `json:"paid"`
	Outstanding decimal.Decimal    `json:"outstanding"`
	Status      string             `json:"status"`
	Currency    string             `json:"currency"`
	DeliveredAt *time.Time         `json:"delivered_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// DebtorBalance is the pending position of one debtor
type DebtorBalance struct {
	Debtor            DebtorResponse  `json:"debtor"`
	PendingSales      int             `json:"pending_sales"`
	Pending           decimal.Decimal `json:"pending"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	OldestPendingDays int             `json:"oldest_pending_days"`
}

// ToDebtorResponse converts a domain Debtor
func ToDebtorResponse(d *ledger.Debtor) DebtorResponse {
	return DebtorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
	}
}

// ToSaleResponse converts a domain Sale
func ToSaleResponse(s *ledger.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		resp := SaleItemResponse{
			ID:        it.ID,
			Product:   it.Product,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total(),
		}
		if it.UnitPriceVES.Valid {
			ves := it.UnitPriceVES.Decimal
			resp.UnitPriceVES = &ves
		}
		items = append(items, resp)
	}
	return SaleResponse{
		ID:          s.ID,
		DebtorID:    s.DebtorID,
		Items:       items,
		Total:       s.Total,
		Paid:        s.Paid,
		Outstanding: s.Outstanding(),
		Status:      string(s.Status),
		Currency:    string(s.Currency),
		DeliveredAt: s.DeliveredAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
