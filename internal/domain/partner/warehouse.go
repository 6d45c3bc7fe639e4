package partner

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is a stock location that batches belong to
type Warehouse struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	Status    WarehouseStatus
	IsDefault bool
}

// NewWarehouse creates a new warehouse with required fields
func NewWarehouse(code, name string) (*Warehouse, error) {
	if err := validateCode("Warehouse", code); err != nil {
		return nil, err
	}
	if err := validateName("Warehouse", name); err != nil {
		return nil, err
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            WarehouseStatusActive,
	}, nil
}

// SetDefault marks the warehouse as the default location
func (w *Warehouse) SetDefault(isDefault bool) {
	w.IsDefault = isDefault
	w.Touch()
	w.IncrementVersion()
}

// Deactivate deactivates the warehouse
func (w *Warehouse) Deactivate() error {
	if w.Status == WarehouseStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Warehouse is already inactive")
	}
	if w.IsDefault {
		return shared.NewDomainError("CANNOT_DEACTIVATE_DEFAULT", "Cannot deactivate the default warehouse")
	}
	w.Status = WarehouseStatusInactive
	w.Touch()
	w.IncrementVersion()
	return nil
}

// IsActive returns true if the warehouse is active
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}
