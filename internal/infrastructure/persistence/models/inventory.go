package models

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryBatchModel is the persistence model for an inventory batch.
type InventoryBatchModel struct {
	BaseModel
	ProductID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_batch_product_number,priority:1;index:idx_batch_lookup,priority:1"`
	WarehouseID  uuid.UUID             `gorm:"type:uuid;not null;index:idx_batch_lookup,priority:2"`
	BatchNumber  string                `gorm:"type:varchar(64);not null;uniqueIndex:idx_batch_product_number,priority:2"`
	Quantity     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	ReceivedDate time.Time             `gorm:"not null"`
	ExpiryDate   *time.Time            `gorm:"index"`
	Status       inventory.BatchStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_batch_lookup,priority:3"`
	SourceID     string                `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (InventoryBatchModel) TableName() string {
	return "inventory_batches"
}

// ToDomain converts the persistence model to a domain batch
func (m *InventoryBatchModel) ToDomain() *inventory.InventoryBatch {
	return &inventory.InventoryBatch{
		BaseEntity:   m.BaseModel.ToDomain(),
		ProductID:    m.ProductID,
		WarehouseID:  m.WarehouseID,
		BatchNumber:  m.BatchNumber,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		ReceivedDate: m.ReceivedDate,
		ExpiryDate:   m.ExpiryDate,
		Status:       m.Status,
		SourceID:     m.SourceID,
	}
}

// InventoryBatchModelFromDomain creates a new model from a domain batch
func InventoryBatchModelFromDomain(b *inventory.InventoryBatch) *InventoryBatchModel {
	m := &InventoryBatchModel{
		ProductID:    b.ProductID,
		WarehouseID:  b.WarehouseID,
		BatchNumber:  b.BatchNumber,
		Quantity:     b.Quantity,
		UnitCost:     b.UnitCost,
		ReceivedDate: b.ReceivedDate,
		ExpiryDate:   b.ExpiryDate,
		Status:       b.Status,
		SourceID:     b.SourceID,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// StockMovementModel is the persistence model for the append-only movement ledger.
type StockMovementModel struct {
	ID          uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_product,priority:1"`
	WarehouseID uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_product,priority:2"`
	Type        inventory.MovementType `gorm:"column:movement_type;type:varchar(20);not null"`
	Quantity    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BatchID     *uuid.UUID             `gorm:"type:uuid;index"`
	UnitCost    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	ReferenceID string                 `gorm:"type:varchar(64);index"`
	Reason      string                 `gorm:"type:varchar(500)"`
	CreatedAt   time.Time              `gorm:"not null;index:idx_movement_product,priority:3"`
	CreatedBy   string                 `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain movement
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:          m.ID,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		BatchID:     m.BatchID,
		UnitCost:    m.UnitCost,
		ReferenceID: m.ReferenceID,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// StockMovementModelFromDomain creates a new model from a domain movement
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:          s.ID,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		Type:        s.Type,
		Quantity:    s.Quantity,
		BatchID:     s.BatchID,
		UnitCost:    s.UnitCost,
		ReferenceID: s.ReferenceID,
		Reason:      s.Reason,
		CreatedAt:   s.CreatedAt,
		CreatedBy:   s.CreatedBy,
	}
}
