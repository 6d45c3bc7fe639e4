package inventory

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeBatch = "InventoryBatch"

// Event type constants
const (
	EventTypeBatchRetired = "BatchRetired"
	EventTypeStockMoved   = "StockMoved"
)

// BatchRetiredEvent is published when a batch is expired by the sweep or written off as damaged
type BatchRetiredEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID       `json:"batch_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Status      BatchStatus     `json:"status"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewBatchRetiredEvent creates a new BatchRetiredEvent
func NewBatchRetiredEvent(b *InventoryBatch, writtenOff decimal.Decimal) *BatchRetiredEvent {
	return &BatchRetiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchRetired, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		ProductID:       b.ProductID,
		WarehouseID:     b.WarehouseID,
		Status:          b.Status,
		Quantity:        writtenOff,
	}
}

// StockMovedEvent is published for every movement appended to the ledger
type StockMovedEvent struct {
	shared.BaseDomainEvent
	MovementID  uuid.UUID       `json:"movement_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Type        MovementType    `json:"movement_type"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewStockMovedEvent creates a new StockMovedEvent
func NewStockMovedEvent(m *StockMovement) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeBatch, m.ProductID),
		MovementID:      m.ID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		Type:            m.Type,
		Quantity:        m.Quantity,
	}
}
