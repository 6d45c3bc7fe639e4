package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherStatus represents the status of a purchase voucher
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "draft"
	VoucherStatusPending   VoucherStatus = "pending"
	VoucherStatusOrdered   VoucherStatus = "ordered"
	VoucherStatusReceived  VoucherStatus = "received"
	VoucherStatusCancelled VoucherStatus = "cancelled"
)

// IsValid checks if the status is a valid VoucherStatus
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusDraft, VoucherStatusPending, VoucherStatusOrdered,
		VoucherStatusReceived, VoucherStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s VoucherStatus) CanTransitionTo(target VoucherStatus) bool {
	switch s {
	case VoucherStatusDraft:
		return target == VoucherStatusPending
	case VoucherStatusPending:
		return target == VoucherStatusOrdered || target == VoucherStatusReceived || target == VoucherStatusCancelled
	case VoucherStatusOrdered:
		return target == VoucherStatusReceived || target == VoucherStatusCancelled
	case VoucherStatusReceived, VoucherStatusCancelled:
		return false
	}
	return false
}

// IsEditable reports whether lines may still change
func (s VoucherStatus) IsEditable() bool {
	return s == VoucherStatusDraft || s == VoucherStatusPending
}

// IsTerminal reports whether no further transition is possible
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusReceived || s == VoucherStatusCancelled
}

// VoucherLine is one product line of a purchase voucher
type VoucherLine struct {
	ID               uuid.UUID
	VoucherID        uuid.UUID
	ProductID        uuid.UUID
	ProductCode      string
	Quantity         decimal.Decimal
	UOM              string
	ConversionFactor decimal.Decimal
	BaseQuantity     decimal.Decimal
	UnitCost         decimal.Decimal
	Amount           decimal.Decimal
	ExpiryDate       *time.Time
	ReceivedQuantity decimal.Decimal
}

// BaseUnitCost returns the cost of one base unit
func (l VoucherLine) BaseUnitCost() decimal.Decimal {
	return l.lineQuantity().PerBase(l.UnitCost)
}

func (l VoucherLine) lineQuantity() LineQuantity {
	return LineQuantity{
		Quantity:         l.Quantity,
		UOM:              l.UOM,
		ConversionFactor: l.ConversionFactor,
		BaseQuantity:     l.BaseQuantity,
	}
}

// IsFullyReceived reports whether the whole base quantity reached stock
func (l VoucherLine) IsFullyReceived() bool {
	return l.ReceivedQuantity.GreaterThanOrEqual(l.BaseQuantity)
}

// PurchaseVoucher is a supplier goods-receipt document
type PurchaseVoucher struct {
	shared.BaseAggregateRoot
	VoucherNumber string
	SupplierID    uuid.UUID
	WarehouseID   uuid.UUID
	Status        VoucherStatus
	Lines         []VoucherLine
	TotalAmount   decimal.Decimal
	Remark        string
	ReceivedDate  *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewPurchaseVoucher creates a draft voucher
func NewPurchaseVoucher(voucherNumber string, supplierID, warehouseID uuid.UUID) (*PurchaseVoucher, error) {
	if voucherNumber == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER_NUMBER", "Voucher number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	v := &PurchaseVoucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VoucherNumber:     voucherNumber,
		SupplierID:        supplierID,
		WarehouseID:       warehouseID,
		Status:            VoucherStatusDraft,
		Lines:             make([]VoucherLine, 0),
		TotalAmount:       decimal.Zero,
	}
	v.AddDomainEvent(NewVoucherCreatedEvent(v))
	return v, nil
}

// AddLine appends a line, snapshotting the unit conversion
func (v *PurchaseVoucher) AddLine(product *catalog.Product, quantity decimal.Decimal, uom string, unitCost decimal.Decimal, expiry *time.Time) (*VoucherLine, error) {
	if !v.Status.IsEditable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit voucher in %s status", v.Status))
	}
	if product == nil {
		return nil, shared.ErrUnknownProduct
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	lq, err := NewLineQuantity(product, quantity, uom)
	if err != nil {
		return nil, err
	}

	line := VoucherLine{
		ID:               uuid.New(),
		VoucherID:        v.ID,
		ProductID:        product.ID,
		ProductCode:      product.Code,
		Quantity:         lq.Quantity,
		UOM:              lq.UOM,
		ConversionFactor: lq.ConversionFactor,
		BaseQuantity:     lq.BaseQuantity,
		UnitCost:         unitCost,
		Amount:           lq.Quantity.Mul(unitCost),
		ExpiryDate:       expiry,
		ReceivedQuantity: decimal.Zero,
	}
	v.Lines = append(v.Lines, line)
	v.touch()
	return &v.Lines[len(v.Lines)-1], nil
}

// RemoveLine drops a line while the voucher is editable
func (v *PurchaseVoucher) RemoveLine(lineID uuid.UUID) error {
	if !v.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit voucher in %s status", v.Status))
	}
	for i := range v.Lines {
		if v.Lines[i].ID == lineID {
			v.Lines = append(v.Lines[:i], v.Lines[i+1:]...)
			v.touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Voucher line not found")
}

// ClearLines drops every line while the voucher is editable
func (v *PurchaseVoucher) ClearLines() error {
	if !v.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit voucher in %s status", v.Status))
	}
	v.Lines = make([]VoucherLine, 0)
	v.touch()
	return nil
}

// Submit moves a draft to pending
func (v *PurchaseVoucher) Submit() error {
	if len(v.Lines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot submit voucher without lines")
	}
	return v.transition(VoucherStatusPending)
}

// MarkOrdered records that the order was placed with the supplier
func (v *PurchaseVoucher) MarkOrdered() error {
	return v.transition(VoucherStatusOrdered)
}

// Cancel cancels a pending or ordered voucher
func (v *PurchaseVoucher) Cancel(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if err := v.transition(VoucherStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	v.CancelledAt = &now
	v.CancelReason = reason
	v.AddDomainEvent(NewVoucherCancelledEvent(v))
	return nil
}

// CanReceive reports whether the receiving workflow may run. A received
// voucher may be received again to re-apply lines that failed earlier.
func (v *PurchaseVoucher) CanReceive() bool {
	return v.Status == VoucherStatusPending || v.Status == VoucherStatusOrdered || v.Status == VoucherStatusReceived
}

// MarkReceived stamps the receipt. Calling it on an already received voucher
// keeps the original receipt date.
func (v *PurchaseVoucher) MarkReceived(at time.Time) error {
	if v.Status == VoucherStatusReceived {
		return nil
	}
	if err := v.transition(VoucherStatusReceived); err != nil {
		return err
	}
	v.ReceivedDate = &at
	v.AddDomainEvent(NewVoucherReceivedEvent(v))
	return nil
}

// RecordLineReceipt adds base quantity that reached stock for a line
func (v *PurchaseVoucher) RecordLineReceipt(lineID uuid.UUID, applied decimal.Decimal) error {
	line := v.Line(lineID)
	if line == nil {
		return shared.NewDomainError("LINE_NOT_FOUND", "Voucher line not found")
	}
	line.ReceivedQuantity = line.ReceivedQuantity.Add(applied)
	v.Touch()
	return nil
}

// Line returns the line with lineID or nil
func (v *PurchaseVoucher) Line(lineID uuid.UUID) *VoucherLine {
	for i := range v.Lines {
		if v.Lines[i].ID == lineID {
			return &v.Lines[i]
		}
	}
	return nil
}

// ProductIDs returns the distinct products referenced by the lines
func (v *PurchaseVoucher) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(v.Lines))
	ids := make([]uuid.UUID, 0, len(v.Lines))
	for _, l := range v.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (v *PurchaseVoucher) transition(target VoucherStatus) error {
	if !v.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move voucher from %s to %s", v.Status, target))
	}
	v.Status = target
	v.Touch()
	v.IncrementVersion()
	return nil
}

func (v *PurchaseVoucher) touch() {
	total := decimal.Zero
	for _, l := range v.Lines {
		total = total.Add(l.Amount)
	}
	v.TotalAmount = total
	v.Touch()
	v.IncrementVersion()
}
