package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find product", err)
	}
	return model.ToDomain()
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError("find products", err)
	}
	return productsToDomain(rows)
}

// FindByCode finds a product by its code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError("find product by code", err)
	}
	return model.ToDomain()
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count products", err)
	}

	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list products", err)
	}
	products, err := productsToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ExistsByCode checks if a product with the given code exists
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, translateError("check product code", err)
	}
	return count > 0, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError("save product", err)
	}
	return nil
}

func productsToDomain(rows []models.ProductModel) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// GormUOMUsageChecker counts voucher and sales lines that reference a unit
type GormUOMUsageChecker struct {
	db *gorm.DB
}

// NewGormUOMUsageChecker creates a new GormUOMUsageChecker
func NewGormUOMUsageChecker(db *gorm.DB) *GormUOMUsageChecker {
	return &GormUOMUsageChecker{db: db}
}

// CountLinesUsingUOM returns how many historical lines were entered in uom
func (c *GormUOMUsageChecker) CountLinesUsingUOM(ctx context.Context, productID uuid.UUID, uom string) (int64, error) {
	uom = strings.TrimSpace(uom)
	var voucherLines, salesLines int64
	if err := c.db.WithContext(ctx).Model(&models.VoucherLineModel{}).
		Where("product_id = ? AND LOWER(uom) = LOWER(?)", productID, uom).
		Count(&voucherLines).Error; err != nil {
		return 0, translateError("count voucher lines by uom", err)
	}
	if err := c.db.WithContext(ctx).Model(&models.SalesOrderLineModel{}).
		Where("product_id = ? AND LOWER(uom) = LOWER(?)", productID, uom).
		Count(&salesLines).Error; err != nil {
		return 0, translateError("count sales lines by uom", err)
	}
	return voucherLines + salesLines, nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.UOMUsageChecker   = (*GormUOMUsageChecker)(nil)
)
