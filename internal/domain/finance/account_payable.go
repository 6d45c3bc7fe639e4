package finance

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableStatus represents the status of an account payable
type PayableStatus string

const (
	PayableStatusOutstanding PayableStatus = "outstanding"
	PayableStatusOverdue     PayableStatus = "overdue"
	PayableStatusPaid        PayableStatus = "paid"
)

// IsValid checks if the status is a valid PayableStatus
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusOutstanding, PayableStatusOverdue, PayableStatusPaid:
		return true
	}
	return false
}

// CanPay returns true if the payable can still be settled
func (s PayableStatus) CanPay() bool {
	return s == PayableStatusOutstanding || s == PayableStatusOverdue
}

// AccountPayable is money owed to a supplier for a received voucher
type AccountPayable struct {
	shared.BaseAggregateRoot
	SupplierID   uuid.UUID
	SourceID     uuid.UUID // voucher id, unique
	SourceNumber string
	Amount       decimal.Decimal
	DueDate      time.Time
	Status       PayableStatus
	PaidAt       *time.Time
}

// NewAccountPayable creates an outstanding payable for a received voucher
func NewAccountPayable(supplierID, sourceID uuid.UUID, sourceNumber string, amount decimal.Decimal, dueDate time.Time) (*AccountPayable, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}
	if sourceNumber == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_NUMBER", "Source number cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payable amount cannot be negative")
	}

	ap := &AccountPayable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		Amount:            amount.Round(4),
		DueDate:           dueDate,
		Status:            PayableStatusOutstanding,
	}
	ap.AddDomainEvent(NewPayableCreatedEvent(ap))
	return ap, nil
}

// MarkPaid settles the payable
func (ap *AccountPayable) MarkPaid(at time.Time) error {
	if !ap.Status.CanPay() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay payable in %s status", ap.Status))
	}
	ap.Status = PayableStatusPaid
	ap.PaidAt = &at
	ap.Touch()
	ap.IncrementVersion()
	ap.AddDomainEvent(NewPayablePaidEvent(ap))
	return nil
}

// IsOverdueAt reports whether an outstanding payable is past due at now
func (ap *AccountPayable) IsOverdueAt(now time.Time) bool {
	return ap.Status == PayableStatusOutstanding && now.After(ap.DueDate)
}

// MarkOverdue flags an outstanding payable whose due date has passed.
// It returns false without error when the payable is not yet due.
func (ap *AccountPayable) MarkOverdue(now time.Time) (bool, error) {
	if ap.Status != PayableStatusOutstanding {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark payable overdue in %s status", ap.Status))
	}
	if !now.After(ap.DueDate) {
		return false, nil
	}
	ap.Status = PayableStatusOverdue
	ap.Touch()
	ap.IncrementVersion()
	return true, nil
}
