package models

import (
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtorModel is the persistence model for ledger.Debtor
type DebtorModel struct {
	BaseModel
	Name           string `gorm:"type:varchar(200);not null"`
	NormalizedName string `gorm:"type:varchar(200);not null;uniqueIndex:idx_debtor_normalized_name"`
	Phone          string `gorm:"type:varchar(50)"`
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DebtorModel) TableName() string {
	return "debtors"
}

// ToDomain converts the model to a domain Debtor
func (m *DebtorModel) ToDomain() *ledger.Debtor {
	return &ledger.Debtor{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Phone:      m.Phone,
		Notes:      m.Notes,
	}
}

// DebtorModelFromDomain creates a persistence model from a domain Debtor
func DebtorModelFromDomain(d *ledger.Debtor) *DebtorModel {
	m := &DebtorModel{
		Name:           d.Name,
		NormalizedName: d.Key(),
		Phone:          d.Phone,
		Notes:          d.Notes,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// SaleModel is the persistence model for ledger.Sale
type SaleModel struct {
	AggregateModel
	DebtorID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Debtor      *DebtorModel      `gorm:"foreignKey:DebtorID;constraint:OnDelete:RESTRICT"`
	Total       decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Paid        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status      ledger.SaleStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Currency    ledger.Currency   `gorm:"type:varchar(3);not null;default:'USD'"`
	DeliveredAt *time.Time
	Items       []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the model and its loaded items to a domain Sale
func (m *SaleModel) ToDomain() *ledger.Sale {
	sale := &ledger.Sale{
		BaseAggregateRoot: m.ToAggregateRoot(),
		DebtorID:          m.DebtorID,
		Total:             m.Total,
		Paid:              m.Paid,
		Status:            m.Status,
		Currency:          m.Currency,
		DeliveredAt:       m.DeliveredAt,
		Items:             make([]ledger.SaleItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		sale.Items = append(sale.Items, m.Items[i].ToDomain())
	}
	return sale
}

// SaleModelFromDomain creates a persistence model from a domain Sale
func SaleModelFromDomain(s *ledger.Sale) *SaleModel {
	m := &SaleModel{
		DebtorID:    s.DebtorID,
		Total:       s.Total,
		Paid:        s.Paid,
		Status:      s.Status,
		Currency:    s.Currency,
		DeliveredAt: s.DeliveredAt,
		Items:       make([]SaleItemModel, 0, len(s.Items)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, it := range s.Items {
		m.Items = append(m.Items, SaleItemModel{
			ID:           it.ID,
			SaleID:       s.ID,
			Position:     i,
			Product:      it.Product,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			UnitPriceVES: it.UnitPriceVES,
		})
	}
	return m
}

// SaleItemModel is one persisted sale line
type SaleItemModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SaleID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position     int                 `gorm:"not null;default:0"`
	Product      string              `gorm:"type:varchar(200);not null"`
	Quantity     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	UnitPriceVES decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the model to a domain SaleItem
func (m *SaleItemModel) ToDomain() ledger.SaleItem {
	return ledger.SaleItem{
		ID:           m.ID,
		Product:      m.Product,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		UnitPriceVES: m.UnitPriceVES,
	}
}
