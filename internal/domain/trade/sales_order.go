package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusRefunded, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted:
		return target == OrderStatusRefunded
	}
	return false
}

// SalesOrderLine is one product line of a sale
type SalesOrderLine struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	ProductCode      string
	Quantity         decimal.Decimal
	UOM              string
	ConversionFactor decimal.Decimal
	BaseQuantity     decimal.Decimal
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
}

// SalesOrder is a point-of-sale order
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber    string
	CustomerRef    string
	WarehouseID    uuid.UUID
	Status         OrderStatus
	Lines          []SalesOrderLine
	TotalAmount    decimal.Decimal
	IdempotencyKey string
	CompletedAt    *time.Time
}

// ProductQuantity is the base quantity needed for one product
type ProductQuantity struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// NewSalesOrder creates a pending order
func NewSalesOrder(orderNumber string, warehouseID uuid.UUID, customerRef string) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerRef:       customerRef,
		WarehouseID:       warehouseID,
		Status:            OrderStatusPending,
		Lines:             make([]SalesOrderLine, 0),
		TotalAmount:       decimal.Zero,
	}, nil
}

// AddLine appends a cart line converted to base units
func (o *SalesOrder) AddLine(product *catalog.Product, quantity decimal.Decimal, uom string, unitPrice decimal.Decimal) (*SalesOrderLine, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit order in %s status", o.Status))
	}
	if product == nil {
		return nil, shared.ErrUnknownProduct
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	lq, err := NewLineQuantity(product, quantity, uom)
	if err != nil {
		return nil, err
	}

	line := SalesOrderLine{
		ID:               uuid.New(),
		OrderID:          o.ID,
		ProductID:        product.ID,
		ProductCode:      product.Code,
		Quantity:         lq.Quantity,
		UOM:              lq.UOM,
		ConversionFactor: lq.ConversionFactor,
		BaseQuantity:     lq.BaseQuantity,
		UnitPrice:        unitPrice,
		Amount:           lq.Quantity.Mul(unitPrice),
	}
	o.Lines = append(o.Lines, line)
	o.TotalAmount = o.TotalAmount.Add(line.Amount)
	o.Touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// AggregateByProduct sums base quantities per product, keeping the order in
// which products first appear in the cart
func (o *SalesOrder) AggregateByProduct() []ProductQuantity {
	index := make(map[uuid.UUID]int, len(o.Lines))
	result := make([]ProductQuantity, 0, len(o.Lines))
	for _, l := range o.Lines {
		if i, ok := index[l.ProductID]; ok {
			result[i].Quantity = result[i].Quantity.Add(l.BaseQuantity)
			continue
		}
		index[l.ProductID] = len(result)
		result = append(result, ProductQuantity{ProductID: l.ProductID, Quantity: l.BaseQuantity})
	}
	return result
}

// Complete marks the order completed
func (o *SalesOrder) Complete(at time.Time) error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot complete order without lines")
	}
	if err := o.transition(OrderStatusCompleted); err != nil {
		return err
	}
	o.CompletedAt = &at
	o.AddDomainEvent(NewSaleCompletedEvent(o))
	return nil
}

// Refund marks a completed order refunded
func (o *SalesOrder) Refund() error {
	return o.transition(OrderStatusRefunded)
}

// Cancel cancels a pending order
func (o *SalesOrder) Cancel() error {
	return o.transition(OrderStatusCancelled)
}

func (o *SalesOrder) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.Touch()
	o.IncrementVersion()
	return nil
}
