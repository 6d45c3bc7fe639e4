package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle state of an inventory batch
type BatchStatus string

const (
	BatchStatusActive  BatchStatus = "active"
	BatchStatusExpired BatchStatus = "expired"
	BatchStatusDamaged BatchStatus = "damaged"
)

// IsValid returns true if the status is known
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusExpired, BatchStatusDamaged:
		return true
	}
	return false
}

// receiptNamespace seeds the UUIDv5 used for receipt batch numbers.
var receiptNamespace = uuid.MustParse("6f1c8f0e-5d2a-4e8b-9a57-3c0d2b7e41a9")

var (
	ErrFractionalQuantity = shared.NewDomainError("FRACTIONAL_QUANTITY", "Stock quantities must be whole base units")
	ErrBatchNotActive     = shared.NewDomainError("BATCH_NOT_ACTIVE", "Batch is no longer active")
)

// InventoryBatch is a quantity of one product received into one warehouse at
// a single unit cost and optional expiry. Quantity is in base units. A batch
// that reaches zero, expires or is damaged stays on record for audit.
type InventoryBatch struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	BatchNumber  string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	ReceivedDate time.Time
	ExpiryDate   *time.Time
	Status       BatchStatus
	SourceID     string
}

// NewInventoryBatch creates an active batch
func NewInventoryBatch(
	productID, warehouseID uuid.UUID,
	batchNumber string,
	quantity, unitCost decimal.Decimal,
	receivedDate time.Time,
	expiryDate *time.Time,
) (*InventoryBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	batchNumber = strings.TrimSpace(batchNumber)
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if len(batchNumber) > 64 {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot exceed 64 characters")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity cannot be negative")
	}
	if !IsWholeQuantity(quantity) {
		return nil, ErrFractionalQuantity
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}

	return &InventoryBatch{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		WarehouseID:  warehouseID,
		BatchNumber:  batchNumber,
		Quantity:     quantity,
		UnitCost:     unitCost,
		ReceivedDate: receivedDate,
		ExpiryDate:   expiryDate,
		Status:       BatchStatusActive,
	}, nil
}

// IsAllocatable reports whether FIFO allocation may draw from the batch
func (b *InventoryBatch) IsAllocatable() bool {
	return b.Status == BatchStatusActive && b.Quantity.IsPositive()
}

// IsExpiredAt reports whether the expiry date has passed at now
func (b *InventoryBatch) IsExpiredAt(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// Deduct removes quantity from an active batch. It never drives the batch negative.
func (b *InventoryBatch) Deduct(quantity decimal.Decimal) error {
	if b.Status != BatchStatusActive {
		return ErrBatchNotActive
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	if quantity.GreaterThan(b.Quantity) {
		return shared.ErrInsufficientStock
	}
	b.Quantity = b.Quantity.Sub(quantity)
	b.Touch()
	return nil
}

// Increase adds received quantity to an active batch
func (b *InventoryBatch) Increase(quantity decimal.Decimal) error {
	if b.Status != BatchStatusActive {
		return ErrBatchNotActive
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Increase quantity must be positive")
	}
	if !IsWholeQuantity(quantity) {
		return ErrFractionalQuantity
	}
	b.Quantity = b.Quantity.Add(quantity)
	b.Touch()
	return nil
}

// MarkExpired retires an active batch whose expiry has passed
func (b *InventoryBatch) MarkExpired() error {
	return b.retire(BatchStatusExpired)
}

// MarkDamaged retires an active batch on manual write-off
func (b *InventoryBatch) MarkDamaged() error {
	return b.retire(BatchStatusDamaged)
}

func (b *InventoryBatch) retire(status BatchStatus) error {
	if b.Status != BatchStatusActive {
		return ErrBatchNotActive
	}
	b.Status = status
	b.Touch()
	return nil
}

// DeterministicBatchNumber derives the batch number for a receipt line so a
// retried receive lands on the same batch.
func DeterministicBatchNumber(voucherID, lineID uuid.UUID) string {
	seed := make([]byte, 0, 32)
	seed = append(seed, voucherID[:]...)
	seed = append(seed, lineID[:]...)
	id := uuid.NewSHA1(receiptNamespace, seed)
	return "RCV-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:16])
}

// IsWholeQuantity reports whether q has no fractional part
func IsWholeQuantity(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(0))
}

// SumQuantity totals the quantity of allocatable batches
func SumQuantity(batches []InventoryBatch) decimal.Decimal {
	total := decimal.Zero
	for i := range batches {
		if batches[i].IsAllocatable() {
			total = total.Add(batches[i].Quantity)
		}
	}
	return total
}
