package ledger

import (
	"context"

	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/google/uuid"
)

// DebtorRepository defines the interface for debtor persistence
type DebtorRepository interface {
	// FindByID returns shared.ErrNotFound when missing
	FindByID(ctx context.Context, id uuid.UUID) (*Debtor, error)

	// FindByName matches the normalized name
	FindByName(ctx context.Context, name string) (*Debtor, error)

	// FindByIDs returns the debtors with the given ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Debtor, error)

	// Search returns debtors whose name contains query, case-insensitively.
	// An empty query returns every debtor.
	Search(ctx context.Context, query string) ([]Debtor, error)

	// Save creates or updates a debtor
	Save(ctx context.Context, debtor *Debtor) error
}

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	DebtorID *uuid.UUID
	Status   SaleStatus
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID returns shared.ErrNotFound when missing
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindAll returns sales newest first together with the total count
	FindAll(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)

	// FindPending returns every non-delivered sale, newest first
	FindPending(ctx context.Context) ([]Sale, error)

	// Save creates or updates a sale and its items
	Save(ctx context.Context, sale *Sale) error

	// Delete removes a sale and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
