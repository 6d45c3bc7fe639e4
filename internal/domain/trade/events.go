package trade

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePurchaseVoucher = "PurchaseVoucher"
	AggregateTypeSalesOrder      = "SalesOrder"
)

// Event type constants
const (
	EventTypeVoucherCreated   = "PurchaseVoucherCreated"
	EventTypeVoucherReceived  = "PurchaseVoucherReceived"
	EventTypeVoucherCancelled = "PurchaseVoucherCancelled"
	EventTypeSaleCompleted    = "SaleCompleted"
)

// VoucherCreatedEvent is published when a voucher is drafted
type VoucherCreatedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	VoucherNumber string    `json:"voucher_number"`
	SupplierID    uuid.UUID `json:"supplier_id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
}

// NewVoucherCreatedEvent creates a new VoucherCreatedEvent
func NewVoucherCreatedEvent(v *PurchaseVoucher) *VoucherCreatedEvent {
	return &VoucherCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherCreated, AggregateTypePurchaseVoucher, v.ID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		SupplierID:      v.SupplierID,
		WarehouseID:     v.WarehouseID,
	}
}

// VoucherReceivedEvent is published when a voucher is first marked received
type VoucherReceivedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ReceivedDate  time.Time       `json:"received_date"`
}

// NewVoucherReceivedEvent creates a new VoucherReceivedEvent
func NewVoucherReceivedEvent(v *PurchaseVoucher) *VoucherReceivedEvent {
	e := &VoucherReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherReceived, AggregateTypePurchaseVoucher, v.ID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		SupplierID:      v.SupplierID,
		TotalAmount:     v.TotalAmount,
	}
	if v.ReceivedDate != nil {
		e.ReceivedDate = *v.ReceivedDate
	}
	return e
}

// VoucherCancelledEvent is published when a voucher is cancelled
type VoucherCancelledEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	VoucherNumber string    `json:"voucher_number"`
	Reason        string    `json:"reason"`
}

// NewVoucherCancelledEvent creates a new VoucherCancelledEvent
func NewVoucherCancelledEvent(v *PurchaseVoucher) *VoucherCancelledEvent {
	return &VoucherCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherCancelled, AggregateTypePurchaseVoucher, v.ID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		Reason:          v.CancelReason,
	}
}

// SaleCompletedEvent is published when a sale is completed
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	WarehouseID uuid.UUID         `json:"warehouse_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Products    []ProductQuantity `json:"products"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(o *SalesOrder) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSalesOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		WarehouseID:     o.WarehouseID,
		TotalAmount:     o.TotalAmount,
		Products:        o.AggregateByProduct(),
	}
}
