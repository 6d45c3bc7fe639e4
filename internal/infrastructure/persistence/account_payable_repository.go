package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountPayableRepository implements AccountPayableRepository using GORM
type GormAccountPayableRepository struct {
	db *gorm.DB
}

// NewGormAccountPayableRepository creates a new GormAccountPayableRepository
func NewGormAccountPayableRepository(db *gorm.DB) *GormAccountPayableRepository {
	return &GormAccountPayableRepository{db: db}
}

// FindByID finds a payable by its ID
func (r *GormAccountPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.AccountPayable, error) {
	var model models.AccountPayableModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find payable", err)
	}
	return model.ToDomain(), nil
}

// FindBySource finds the payable raised for a purchase voucher
func (r *GormAccountPayableRepository) FindBySource(ctx context.Context, sourceID uuid.UUID) (*finance.AccountPayable, error) {
	var model models.AccountPayableModel
	if err := r.db.WithContext(ctx).Where("source_id = ?", sourceID).First(&model).Error; err != nil {
		return nil, translateError("find payable by source", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists payables matching the filter
func (r *GormAccountPayableRepository) FindAll(ctx context.Context, filter finance.PayableFilter) ([]finance.AccountPayable, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountPayableModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count payables", err)
	}
	var rows []models.AccountPayableModel
	if err := paginate(query, filter.Filter, AccountPayableSortFields, "due_date").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list payables", err)
	}
	payables := make([]finance.AccountPayable, len(rows))
	for i := range rows {
		payables[i] = *rows[i].ToDomain()
	}
	return payables, total, nil
}

// FindOverdueCandidates returns outstanding payables due before asOf, oldest first
func (r *GormAccountPayableRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]finance.AccountPayable, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", finance.PayableStatusOutstanding, asOf).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.AccountPayableModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("find overdue payables", err)
	}
	payables := make([]finance.AccountPayable, len(rows))
	for i := range rows {
		payables[i] = *rows[i].ToDomain()
	}
	return payables, nil
}

// Save creates or updates a payable. The unique source_id index rejects a
// second payable for the same voucher.
func (r *GormAccountPayableRepository) Save(ctx context.Context, payable *finance.AccountPayable) error {
	if err := r.db.WithContext(ctx).Save(models.AccountPayableModelFromDomain(payable)).Error; err != nil {
		return translateError("save payable", err)
	}
	return nil
}

var _ finance.AccountPayableRepository = (*GormAccountPayableRepository)(nil)
