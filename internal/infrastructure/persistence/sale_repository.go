package persistence

import (
	"context"
	"errors"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements ledger.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

var _ ledger.SaleRepository = (*GormSaleRepository)(nil)

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of sales, newest first, and the total count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter ledger.SaleFilter) ([]ledger.Sale, int64, error) {
	page := filter.Filter.Normalize()
	scope := saleFilterScope(filter.DebtorID, filter.Status, page.Search)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Select("sales.*").
		Preload("Items", preloadItems).
		Order("sales.created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return salesToDomain(rows), total, nil
}

func saleFilterScope(debtorID *uuid.UUID, status ledger.SaleStatus, search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if debtorID != nil {
			db = db.Where("sales.debtor_id = ?", *debtorID)
		}
		if status != "" {
			db = db.Where("sales.status = ?", status)
		}
		if key := ledger.NormalizeName(search); key != "" {
			db = db.Joins("JOIN debtors ON debtors.id = sales.debtor_id").
				Where("debtors.normalized_name LIKE ? ESCAPE '\\'", "%"+escapeLike(key)+"%")
		}
		return db
	}
}

// FindPending returns every sale not yet delivered, newest first
func (r *GormSaleRepository) FindPending(ctx context.Context) ([]ledger.Sale, error) {
	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("status <> ?", ledger.SaleStatusDelivered).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return salesToDomain(rows), nil
}

// Save upserts the sale row and replaces its items in one transaction
func (r *GormSaleRepository) Save(ctx context.Context, sale *ledger.Sale) error {
	model := models.SaleModelFromDomain(sale)
	items := model.Items
	model.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"debtor_id", "total", "paid", "status", "currency", "delivered_at", "version", "updated_at",
			}),
		}).Create(model).Error
		if err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItemModel{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// Delete removes a sale and its items
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.SaleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func salesToDomain(rows []models.SaleModel) []ledger.Sale {
	out := make([]ledger.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
