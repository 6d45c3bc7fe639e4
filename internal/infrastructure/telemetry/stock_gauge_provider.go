package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockGaugeProvider implements StockGaugeProvider with aggregate queries
// over inventory_batches.
type GormStockGaugeProvider struct {
	db *gorm.DB
}

// NewGormStockGaugeProvider creates a new GormStockGaugeProvider.
func NewGormStockGaugeProvider(db *gorm.DB) *GormStockGaugeProvider {
	return &GormStockGaugeProvider{db: db}
}

// OnHandByWarehouse returns the active batch quantity per warehouse
func (p *GormStockGaugeProvider) OnHandByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		WarehouseID uuid.UUID `gorm:"column:warehouse_id"`
		Quantity    int64     `gorm:"column:quantity"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("inventory_batches").
		Select("warehouse_id, CAST(COALESCE(SUM(quantity), 0) AS BIGINT) AS quantity").
		Where("status = ?", "active").
		Group("warehouse_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.WarehouseID] = r.Quantity
	}
	return m, nil
}

// ExpiringCount returns active batches with stock whose expiry is before horizon
func (p *GormStockGaugeProvider) ExpiringCount(ctx context.Context, horizon time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("inventory_batches").
		Where("status = ? AND quantity > 0", "active").
		Where("expiry_date IS NOT NULL AND expiry_date < ?", horizon).
		Count(&count).Error
	return count, err
}
