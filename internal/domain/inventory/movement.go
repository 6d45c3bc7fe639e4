package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the kind of stock-affecting event
type MovementType string

const (
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeSale       MovementType = "sale"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeExpired    MovementType = "expired"
	MovementTypeDamaged    MovementType = "damaged"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase, MovementTypeSale, MovementTypeTransfer,
		MovementTypeAdjustment, MovementTypeExpired, MovementTypeDamaged:
		return true
	}
	return false
}

// AllowsSign reports whether a quantity with the given sign is consistent with the type.
// Purchases add stock; sales, expiry and damage remove it; transfers and
// adjustments go either way.
func (t MovementType) AllowsSign(quantity decimal.Decimal) bool {
	switch t {
	case MovementTypePurchase:
		return quantity.IsPositive()
	case MovementTypeSale, MovementTypeExpired, MovementTypeDamaged:
		return quantity.IsNegative()
	case MovementTypeTransfer, MovementTypeAdjustment:
		return !quantity.IsZero()
	}
	return false
}

// RequiresReason reports whether the type must carry a free-text reason
func (t MovementType) RequiresReason() bool {
	return t == MovementTypeAdjustment || t == MovementTypeDamaged
}

var (
	ErrZeroMovement     = shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	ErrMovementSign     = shared.NewDomainError("INVALID_MOVEMENT_SIGN", "Movement quantity sign does not match its type")
	ErrMovementReason   = shared.NewDomainError("REASON_REQUIRED", "Movement type requires a reason")
	ErrInvalidMovement  = shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	ErrMovementProduct  = shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	ErrMovementLocation = shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
)

// StockMovement is an immutable ledger entry. On-hand stock for a product in
// a warehouse is the sum of its movements; corrections are new adjustment
// movements, never edits.
type StockMovement struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Type        MovementType
	Quantity    decimal.Decimal
	BatchID     *uuid.UUID
	UnitCost    decimal.Decimal
	ReferenceID string
	Reason      string
	CreatedAt   time.Time
	CreatedBy   string
}

// NewStockMovement creates and validates a movement
func NewStockMovement(
	productID, warehouseID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	referenceID, reason string,
) (*StockMovement, error) {
	m := &StockMovement{
		ID:          uuid.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        movementType,
		Quantity:    quantity,
		UnitCost:    decimal.Zero,
		ReferenceID: referenceID,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the non-zero, sign and reason rules
func (m *StockMovement) Validate() error {
	if m.ProductID == uuid.Nil {
		return ErrMovementProduct
	}
	if m.WarehouseID == uuid.Nil {
		return ErrMovementLocation
	}
	if !m.Type.IsValid() {
		return ErrInvalidMovement
	}
	if m.Quantity.IsZero() {
		return ErrZeroMovement
	}
	if !m.Type.AllowsSign(m.Quantity) {
		return ErrMovementSign
	}
	if m.Type.RequiresReason() && strings.TrimSpace(m.Reason) == "" {
		return ErrMovementReason
	}
	if m.UnitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	return nil
}

// IsAddition returns true if the movement adds stock
func (m *StockMovement) IsAddition() bool {
	return m.Quantity.IsPositive()
}

// WithBatch links the movement to a batch
func (m *StockMovement) WithBatch(batchID uuid.UUID) *StockMovement {
	m.BatchID = &batchID
	return m
}

// WithUnitCost sets the cost basis of the movement
func (m *StockMovement) WithUnitCost(unitCost decimal.Decimal) *StockMovement {
	m.UnitCost = unitCost
	return m
}

// WithCreatedBy records who caused the movement
func (m *StockMovement) WithCreatedBy(createdBy string) *StockMovement {
	m.CreatedBy = createdBy
	return m
}
