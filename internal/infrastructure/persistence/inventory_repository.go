package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fifoOrder is the consumption order: earliest expiry first with
// non-perishable batches last, then oldest receipt.
const fifoOrder = "CASE WHEN expiry_date IS NULL THEN 1 ELSE 0 END ASC, expiry_date ASC, received_date ASC, created_at ASC"

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryBatch, error) {
	var model models.InventoryBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find batch", err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a batch by product and batch number
func (r *GormBatchRepository) FindByNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*inventory.InventoryBatch, error) {
	var model models.InventoryBatchModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		First(&model).Error; err != nil {
		return nil, translateError("find batch by number", err)
	}
	return model.ToDomain(), nil
}

// ListActive returns active batches with stock in FIFO order
func (r *GormBatchRepository) ListActive(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.InventoryBatch, error) {
	var rows []models.InventoryBatchModel
	if err := activeBatches(r.db.WithContext(ctx), productID, warehouseID).Find(&rows).Error; err != nil {
		return nil, translateError("list active batches", err)
	}
	return batchesToDomain(rows), nil
}

// SumActive returns on-hand quantity per product from active batches.
// Products without stock are absent from the map.
func (r *GormBatchRepository) SumActive(ctx context.Context, warehouseID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Total     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.InventoryBatchModel{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Where("warehouse_id = ? AND status = ? AND product_id IN ?", warehouseID, inventory.BatchStatusActive, productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, translateError("sum active batches", err)
	}
	for _, row := range rows {
		result[row.ProductID] = row.Total
	}
	return result, nil
}

// FindExpiring returns active batches whose expiry date is before asOf
func (r *GormBatchRepository) FindExpiring(ctx context.Context, asOf time.Time, limit int) ([]inventory.InventoryBatch, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", inventory.BatchStatusActive, asOf).
		Order("expiry_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.InventoryBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("find expiring batches", err)
	}
	return batchesToDomain(rows), nil
}

func activeBatches(db *gorm.DB, productID, warehouseID uuid.UUID) *gorm.DB {
	return db.Where("product_id = ? AND warehouse_id = ? AND status = ? AND quantity > 0",
		productID, warehouseID, inventory.BatchStatusActive).
		Order(fifoOrder)
}

func batchesToDomain(rows []models.InventoryBatchModel) []inventory.InventoryBatch {
	batches := make([]inventory.InventoryBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement. Movements are never updated.
func (r *GormMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return translateError("append movement", err)
	}
	return nil
}

// FindByProduct lists movements for a product in a warehouse, newest first
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	if t, ok := filter.Filters["movement_type"]; ok {
		query = query.Where("movement_type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count movements", err)
	}
	var rows []models.StockMovementModel
	if err := paginate(query, filter, StockMovementSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list movements", err)
	}
	return movementsToDomain(rows), total, nil
}

// FindByReference lists movements caused by one order or voucher
func (r *GormMovementRepository) FindByReference(ctx context.Context, referenceID string) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("find movements by reference", err)
	}
	return movementsToDomain(rows), nil
}

// SumQuantity returns the on-hand quantity derived from the ledger
func (r *GormMovementRepository) SumQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, translateError("sum movements", err)
	}
	return total, nil
}

func movementsToDomain(rows []models.StockMovementModel) []inventory.StockMovement {
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements
}

var (
	_ inventory.BatchRepository    = (*GormBatchRepository)(nil)
	_ inventory.MovementRepository = (*GormMovementRepository)(nil)
)
