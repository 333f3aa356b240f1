package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/Erickgiber/debts-my-clients/internal/domain/ledger"
	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDebtorRepository implements ledger.DebtorRepository using GORM
type GormDebtorRepository struct {
	db *gorm.DB
}

var _ ledger.DebtorRepository = (*GormDebtorRepository)(nil)

// NewGormDebtorRepository creates a new GormDebtorRepository
func NewGormDebtorRepository(db *gorm.DB) *GormDebtorRepository {
	return &GormDebtorRepository{db: db}
}

// FindByID finds a debtor by its ID
func (r *GormDebtorRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Debtor, error) {
	var model models.DebtorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a debtor by normalized name
func (r *GormDebtorRepository) FindByName(ctx context.Context, name string) (*ledger.Debtor, error) {
	key := ledger.NormalizeName(name)
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.DebtorModel
	if err := r.db.WithContext(ctx).Where("normalized_name = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds all debtors with the given IDs
func (r *GormDebtorRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Debtor, error) {
	if len(ids) == 0 {
		return []ledger.Debtor{}, nil
	}
	var rows []models.DebtorModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return debtorsToDomain(rows), nil
}

// Search finds debtors whose name contains query, ordered by name
func (r *GormDebtorRepository) Search(ctx context.Context, query string) ([]ledger.Debtor, error) {
	q := r.db.WithContext(ctx).Model(&models.DebtorModel{})
	if key := ledger.NormalizeName(query); key != "" {
		q = q.Where("normalized_name LIKE ? ESCAPE '\\'", "%"+escapeLike(key)+"%")
	}
	var rows []models.DebtorModel
	if err := q.Order("normalized_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return debtorsToDomain(rows), nil
}

// Save creates or updates a debtor. A second debtor with the same
// normalized name yields shared.ErrAlreadyExists.
func (r *GormDebtorRepository) Save(ctx context.Context, debtor *ledger.Debtor) error {
	model := models.DebtorModelFromDomain(debtor)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "normalized_name", "phone", "notes", "updated_at"}),
	}).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

func debtorsToDomain(rows []models.DebtorModel) []ledger.Debtor {
	out := make([]ledger.Debtor, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
