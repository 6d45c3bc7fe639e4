package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find warehouse", err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a warehouse by its code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*partner.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError("find warehouse by code", err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all warehouses matching the filter. Without an explicit
// order the default warehouse comes first.
func (r *GormWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WarehouseModel{})
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "is_default":
			query = query.Where("is_default = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count warehouses", err)
	}
	if filter.OrderBy == "" {
		query = query.Order("is_default DESC")
		filter.OrderBy, filter.OrderDir = "code", "asc"
	}
	var rows []models.WarehouseModel
	if err := paginate(query, filter, WarehouseSortFields, "code").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list warehouses", err)
	}
	warehouses := make([]partner.Warehouse, len(rows))
	for i := range rows {
		warehouses[i] = *rows[i].ToDomain()
	}
	return warehouses, total, nil
}

// Save creates or updates a warehouse. Marking a warehouse as default clears
// the flag on every other warehouse in the same transaction.
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if warehouse.IsDefault {
			if err := tx.Model(&models.WarehouseModel{}).
				Where("id <> ? AND is_default = ?", warehouse.ID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(models.WarehouseModelFromDomain(warehouse)).Error
	})
	return translateError("save warehouse", err)
}

var _ partner.WarehouseRepository = (*GormWarehouseRepository)(nil)
