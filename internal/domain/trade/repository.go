package trade

import (
	"context"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// VoucherFilter narrows voucher listings
type VoucherFilter struct {
	shared.Filter
	Status     *VoucherStatus
	SupplierID *uuid.UUID
}

// PurchaseVoucherRepository defines persistence for purchase vouchers
type PurchaseVoucherRepository interface {
	// FindByID loads a voucher with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseVoucher, error)

	// FindByNumber loads a voucher by its number
	FindByNumber(ctx context.Context, number string) (*PurchaseVoucher, error)

	// FindAll lists vouchers without lines
	FindAll(ctx context.Context, filter VoucherFilter) ([]PurchaseVoucher, int64, error)

	// Save creates or updates a voucher and replaces its lines
	Save(ctx context.Context, voucher *PurchaseVoucher) error
}

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindAll lists orders without lines
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, int64, error)

	// Save creates or updates an order and its lines
	Save(ctx context.Context, order *SalesOrder) error
}
