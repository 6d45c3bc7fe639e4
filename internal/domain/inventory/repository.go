package inventory

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchRepository is the read side of the batch store
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryBatch, error)

	// FindByNumber finds a batch by product and batch number
	FindByNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*InventoryBatch, error)

	// ListActive returns active batches with stock for a product in a warehouse,
	// ordered by expiry ascending (nulls last) then received date ascending
	ListActive(ctx context.Context, productID, warehouseID uuid.UUID) ([]InventoryBatch, error)

	// SumActive returns on-hand quantity per product from active batches
	SumActive(ctx context.Context, warehouseID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// FindExpiring returns active batches whose expiry date is before asOf
	FindExpiring(ctx context.Context, asOf time.Time, limit int) ([]InventoryBatch, error)
}

// MovementRepository stores the append-only movement ledger
type MovementRepository interface {
	// Append persists a new movement; existing movements are never updated
	Append(ctx context.Context, movement *StockMovement) error

	// FindByProduct lists movements for a product in a warehouse, newest first
	FindByProduct(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)

	// FindByReference lists movements caused by one order or voucher
	FindByReference(ctx context.Context, referenceID string) ([]StockMovement, error)

	// SumQuantity returns the on-hand quantity derived from the ledger
	SumQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error)
}

// ReceiptEntry asks the ledger to bring a receipt batch up to Quantity.
type ReceiptEntry struct {
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	BatchNumber  string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	ReceivedDate time.Time
	ExpiryDate   *time.Time
	ReferenceID  string
	CreatedBy    string
}

// ReceiptOutcome reports what a receipt changed
type ReceiptOutcome struct {
	Batch    *InventoryBatch
	Applied  decimal.Decimal
	Created  bool
	Skipped  bool
	Movement *StockMovement
}

// DecrementRequest removes stock FIFO from one product in one warehouse
type DecrementRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	Type        MovementType
	ReferenceID string
	Reason      string
	CreatedBy   string
}

// DecrementOutcome carries the applied plan and the movements it wrote
type DecrementOutcome struct {
	Plan      *AllocationPlan
	Movements []StockMovement
}

// IncreaseRequest adds stock as a new batch outside of receiving
type IncreaseRequest struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	BatchNumber string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ExpiryDate  *time.Time
	Type        MovementType
	ReferenceID string
	Reason      string
	CreatedBy   string
}

// TransferRequest moves stock between warehouses
type TransferRequest struct {
	ProductID       uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        decimal.Decimal
	ReferenceID     string
	CreatedBy       string
}

// TransferOutcome lists the batches created at the destination
type TransferOutcome struct {
	Plan      *AllocationPlan
	Created   []InventoryBatch
	Movements []StockMovement
}

// WriteOffRequest retires a batch as expired or damaged
type WriteOffRequest struct {
	BatchID   uuid.UUID
	Type      MovementType
	Reason    string
	CreatedBy string
}

// WriteOffOutcome reports the retired batch and the movement written, if any
type WriteOffOutcome struct {
	Batch    *InventoryBatch
	Movement *StockMovement
}

// StockLedger applies batch changes and their movements atomically at the store.
// Every method runs as one server-side transaction; the caller never computes
// a post-change quantity and writes it back.
type StockLedger interface {
	// Receive creates or tops up the batch keyed by entry.BatchNumber so that the
	// total purchased into it equals entry.Quantity. Repeating a receipt is a no-op.
	Receive(ctx context.Context, entry ReceiptEntry) (*ReceiptOutcome, error)

	// Decrement consumes stock FIFO or fails with InsufficientStockError without
	// changing anything.
	Decrement(ctx context.Context, req DecrementRequest) (*DecrementOutcome, error)

	// Increase creates a new batch and its positive movement
	Increase(ctx context.Context, req IncreaseRequest) (*ReceiptOutcome, error)

	// Transfer consumes FIFO in the source warehouse and recreates the drawn
	// batches in the destination
	Transfer(ctx context.Context, req TransferRequest) (*TransferOutcome, error)

	// WriteOff retires an active batch and removes its remaining quantity from the ledger
	WriteOff(ctx context.Context, req WriteOffRequest) (*WriteOffOutcome, error)
}
