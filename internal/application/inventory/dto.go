package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchResponse represents an inventory batch in API responses
type BatchResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	BatchNumber  string          `json:"batch_number"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate time.Time       `json:"received_date"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	Status       string          `json:"status"`
	SourceID     string          `json:"source_id,omitempty"`
}

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchID     *uuid.UUID      `json:"batch_id,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

// MovementListFilter represents filter options for movement history
type MovementListFilter struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Page        int
	PageSize    int
}

// AllocateRequest asks for a read-only FIFO plan
type AllocateRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UOM         string          `json:"uom"`
}

// RequestedLine is one base-unit demand of an availability check
type RequestedLine struct {
	ProductID    uuid.UUID
	BaseQuantity decimal.Decimal
}

// CartLine is one line of an availability request as entered at the till
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UOM       string          `json:"uom"`
}

// AvailabilityRequest checks a cart against one warehouse
type AvailabilityRequest struct {
	WarehouseID uuid.UUID  `json:"warehouse_id" binding:"required"`
	Lines       []CartLine `json:"lines" binding:"required,min=1,dive"`
}

// AvailabilityResult reports whether every product of a request can be served
type AvailabilityResult struct {
	Valid      bool                       `json:"valid"`
	Shortfalls []inventory.StockShortfall `json:"shortfalls"`
}

// Error returns the shortfalls as an InsufficientStockError, or nil when valid
func (r *AvailabilityResult) Error() error {
	if r.Valid {
		return nil
	}
	return &inventory.InsufficientStockError{Shortfalls: r.Shortfalls}
}

// AdjustRequest corrects stock for a product in a warehouse
type AdjustRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	Reason      string          `json:"reason" binding:"required,max=500"`
	ReferenceID string          `json:"reference_id"`
	CreatedBy   string          `json:"-"`
}

// TransferRequest moves stock between warehouses
type TransferRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	ReferenceID     string          `json:"reference_id"`
	CreatedBy       string          `json:"-"`
}

// DamageRequest writes off a batch
type DamageRequest struct {
	Reason    string `json:"reason" binding:"required,max=500"`
	CreatedBy string `json:"-"`
}

// StockChangeResponse reports the movements written by a stock operation
type StockChangeResponse struct {
	ReferenceID string                    `json:"reference_id"`
	Plan        *inventory.AllocationPlan `json:"plan,omitempty"`
	Batches     []BatchResponse           `json:"batches,omitempty"`
	Movements   []MovementResponse        `json:"movements"`
}

// ReconcileResult compares the movement ledger with the batch store
type ReconcileResult struct {
	ProductID      uuid.UUID       `json:"product_id"`
	WarehouseID    uuid.UUID       `json:"warehouse_id"`
	MovementSum    decimal.Decimal `json:"movement_sum"`
	ActiveBatchSum decimal.Decimal `json:"active_batch_sum"`
	Consistent     bool            `json:"consistent"`
}

// SweepStats contains statistics about one expiry sweep
type SweepStats struct {
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ToBatchResponse converts a domain batch to its response DTO
func ToBatchResponse(b *inventory.InventoryBatch) BatchResponse {
	return BatchResponse{
		ID:           b.ID,
		ProductID:    b.ProductID,
		WarehouseID:  b.WarehouseID,
		BatchNumber:  b.BatchNumber,
		Quantity:     b.Quantity,
		UnitCost:     b.UnitCost,
		ReceivedDate: b.ReceivedDate,
		ExpiryDate:   b.ExpiryDate,
		Status:       string(b.Status),
		SourceID:     b.SourceID,
	}
}

// ToBatchResponses converts a slice of domain batches to responses
func ToBatchResponses(batches []inventory.InventoryBatch) []BatchResponse {
	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses
}

// ToMovementResponse converts a domain movement to its response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Type:        m.Type.String(),
		Quantity:    m.Quantity,
		BatchID:     m.BatchID,
		UnitCost:    m.UnitCost,
		ReferenceID: m.ReferenceID,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// ToMovementResponses converts a slice of domain movements to responses
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}
