package trade

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherLineInput is one line of a voucher as entered
type VoucherLineInput struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UOM        string          `json:"uom"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ExpiryDate *time.Time      `json:"expiry_date"`
}

// CreateVoucherRequest drafts a purchase voucher
type CreateVoucherRequest struct {
	VoucherNumber string             `json:"voucher_number" binding:"omitempty,max=50"`
	SupplierID    uuid.UUID          `json:"supplier_id" binding:"required"`
	WarehouseID   uuid.UUID          `json:"warehouse_id" binding:"required"`
	Remark        string             `json:"remark" binding:"max=500"`
	Lines         []VoucherLineInput `json:"lines" binding:"dive"`
}

// ReplaceLinesRequest replaces every line of an editable voucher
type ReplaceLinesRequest struct {
	Lines []VoucherLineInput `json:"lines" binding:"required,dive"`
}

// CancelVoucherRequest cancels a voucher
type CancelVoucherRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// VoucherListFilter represents filter options for voucher listings
type VoucherListFilter struct {
	Status     string
	SupplierID *uuid.UUID
	Page       int
	PageSize   int
}

// VoucherLineResponse represents a voucher line in API responses
type VoucherLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductCode      string          `json:"product_code"`
	Quantity         decimal.Decimal `json:"quantity"`
	UOM              string          `json:"uom"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	BaseQuantity     decimal.Decimal `json:"base_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Amount           decimal.Decimal `json:"amount"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// VoucherResponse represents a purchase voucher in API responses
type VoucherResponse struct {
	ID            uuid.UUID             `json:"id"`
	VoucherNumber string                `json:"voucher_number"`
	SupplierID    uuid.UUID             `json:"supplier_id"`
	WarehouseID   uuid.UUID             `json:"warehouse_id"`
	Status        string                `json:"status"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Remark        string                `json:"remark,omitempty"`
	ReceivedDate  *time.Time            `json:"received_date,omitempty"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	Lines         []VoucherLineResponse `json:"lines"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// ReceiveLineResult reports what receiving did for one voucher line
type ReceiveLineResult struct {
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	BatchID     *uuid.UUID      `json:"batch_id,omitempty"`
	BatchNumber string          `json:"batch_number"`
	Applied     decimal.Decimal `json:"applied"`
	Skipped     bool            `json:"skipped"`
	Error       string          `json:"error,omitempty"`
	Err         error           `json:"-"`
}

// PayableSummary describes the payable created or found for a voucher
type PayableSummary struct {
	ID      uuid.UUID       `json:"id"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
	Status  string          `json:"status"`
	Created bool            `json:"created"`
}

// ReceiveResult is the outcome of the receiving workflow. Warning lists the
// steps that did not apply; everything else is committed.
type ReceiveResult struct {
	Voucher VoucherResponse                     `json:"voucher"`
	Lines   []ReceiveLineResult                 `json:"lines"`
	Payable *PayableSummary                     `json:"payable,omitempty"`
	Warning *shared.PartialWorkflowFailureError `json:"-"`
}

// CartItem is one line of a sale as scanned at the till
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UOM       string          `json:"uom"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CompleteSaleCommand carries a cart to the sale workflow
type CompleteSaleCommand struct {
	OrderNumber    string     `json:"order_number" binding:"omitempty,max=50"`
	WarehouseID    uuid.UUID  `json:"warehouse_id" binding:"required"`
	CustomerRef    string     `json:"customer_ref" binding:"max=100"`
	Lines          []CartItem `json:"lines" binding:"required,min=1,dive"`
	IdempotencyKey string     `json:"-"`
	CreatedBy      string     `json:"-"`
}

// SalesOrderLineResponse represents a sales line in API responses
type SalesOrderLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductCode      string          `json:"product_code"`
	Quantity         decimal.Decimal `json:"quantity"`
	UOM              string          `json:"uom"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	BaseQuantity     decimal.Decimal `json:"base_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID          uuid.UUID                `json:"id"`
	OrderNumber string                   `json:"order_number"`
	CustomerRef string                   `json:"customer_ref,omitempty"`
	WarehouseID uuid.UUID                `json:"warehouse_id"`
	Status      string                   `json:"status"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	Lines       []SalesOrderLineResponse `json:"lines"`
	CreatedAt   time.Time                `json:"created_at"`
}

// DecrementResult reports the stock decrement issued for one product
type DecrementResult struct {
	ProductID uuid.UUID                 `json:"product_id"`
	Quantity  decimal.Decimal           `json:"quantity"`
	Plan      *inventory.AllocationPlan `json:"plan,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// SaleResult is the outcome of the sale workflow. The order is completed even
// when DecrementFailures is not empty.
type SaleResult struct {
	Order             SalesOrderResponse                  `json:"order"`
	Decrements        []DecrementResult                   `json:"decrements"`
	DecrementFailures []shared.StepFailure                `json:"decrement_failures,omitempty"`
	Warning           *shared.PartialWorkflowFailureError `json:"-"`
}

// ToVoucherResponse converts a domain voucher to its response DTO
func ToVoucherResponse(v *trade.PurchaseVoucher) VoucherResponse {
	lines := make([]VoucherLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = VoucherLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductCode:      l.ProductCode,
			Quantity:         l.Quantity,
			UOM:              l.UOM,
			ConversionFactor: l.ConversionFactor,
			BaseQuantity:     l.BaseQuantity,
			UnitCost:         l.UnitCost,
			Amount:           l.Amount,
			ExpiryDate:       l.ExpiryDate,
			ReceivedQuantity: l.ReceivedQuantity,
		}
	}
	return VoucherResponse{
		ID:            v.ID,
		VoucherNumber: v.VoucherNumber,
		SupplierID:    v.SupplierID,
		WarehouseID:   v.WarehouseID,
		Status:        string(v.Status),
		TotalAmount:   v.TotalAmount,
		Remark:        v.Remark,
		ReceivedDate:  v.ReceivedDate,
		CancelledAt:   v.CancelledAt,
		CancelReason:  v.CancelReason,
		Lines:         lines,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		Version:       v.Version,
	}
}

// ToSalesOrderResponse converts a domain order to its response DTO
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	lines := make([]SalesOrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = SalesOrderLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductCode:      l.ProductCode,
			Quantity:         l.Quantity,
			UOM:              l.UOM,
			ConversionFactor: l.ConversionFactor,
			BaseQuantity:     l.BaseQuantity,
			UnitPrice:        l.UnitPrice,
			Amount:           l.Amount,
		}
	}
	return SalesOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerRef: o.CustomerRef,
		WarehouseID: o.WarehouseID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CompletedAt: o.CompletedAt,
		Lines:       lines,
		CreatedAt:   o.CreatedAt,
	}
}
