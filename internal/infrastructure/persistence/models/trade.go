package models

import (
	"time"

	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseVoucherModel is the persistence model for the PurchaseVoucher aggregate root.
type PurchaseVoucherModel struct {
	AggregateModel
	VoucherNumber string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	WarehouseID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status        trade.VoucherStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	TotalAmount   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Remark        string              `gorm:"type:text"`
	ReceivedDate  *time.Time
	CancelledAt   *time.Time
	CancelReason  string             `gorm:"type:varchar(500)"`
	Lines         []VoucherLineModel `gorm:"foreignKey:VoucherID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseVoucherModel) TableName() string {
	return "purchase_vouchers"
}

// ToDomain converts the persistence model to a domain voucher
func (m *PurchaseVoucherModel) ToDomain() *trade.PurchaseVoucher {
	v := &trade.PurchaseVoucher{
		BaseAggregateRoot: m.ToAggregateRoot(),
		VoucherNumber:     m.VoucherNumber,
		SupplierID:        m.SupplierID,
		WarehouseID:       m.WarehouseID,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		Remark:            m.Remark,
		ReceivedDate:      m.ReceivedDate,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Lines:             make([]trade.VoucherLine, len(m.Lines)),
	}
	for i := range m.Lines {
		v.Lines[i] = m.Lines[i].ToDomain()
	}
	return v
}

// PurchaseVoucherModelFromDomain creates a new model from a domain voucher
func PurchaseVoucherModelFromDomain(v *trade.PurchaseVoucher) *PurchaseVoucherModel {
	m := &PurchaseVoucherModel{
		VoucherNumber: v.VoucherNumber,
		SupplierID:    v.SupplierID,
		WarehouseID:   v.WarehouseID,
		Status:        v.Status,
		TotalAmount:   v.TotalAmount,
		Remark:        v.Remark,
		ReceivedDate:  v.ReceivedDate,
		CancelledAt:   v.CancelledAt,
		CancelReason:  v.CancelReason,
		Lines:         make([]VoucherLineModel, len(v.Lines)),
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	for i := range v.Lines {
		m.Lines[i] = VoucherLineModelFromDomain(v.Lines[i])
		m.Lines[i].LineNo = i + 1
	}
	return m
}

// VoucherLineModel is the persistence model for a purchase voucher line.
type VoucherLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VoucherID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo           int             `gorm:"not null;default:0"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_voucher_line_uom,priority:1"`
	ProductCode      string          `gorm:"type:varchar(50);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UOM              string          `gorm:"column:uom;type:varchar(20);not null;index:idx_voucher_line_uom,priority:2"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	BaseQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiryDate       *time.Time
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (VoucherLineModel) TableName() string {
	return "purchase_voucher_lines"
}

// ToDomain converts the persistence model to a domain line
func (m *VoucherLineModel) ToDomain() trade.VoucherLine {
	return trade.VoucherLine{
		ID:               m.ID,
		VoucherID:        m.VoucherID,
		ProductID:        m.ProductID,
		ProductCode:      m.ProductCode,
		Quantity:         m.Quantity,
		UOM:              m.UOM,
		ConversionFactor: m.ConversionFactor,
		BaseQuantity:     m.BaseQuantity,
		UnitCost:         m.UnitCost,
		Amount:           m.Amount,
		ExpiryDate:       m.ExpiryDate,
		ReceivedQuantity: m.ReceivedQuantity,
	}
}

// VoucherLineModelFromDomain creates a new model from a domain line
func VoucherLineModelFromDomain(l trade.VoucherLine) VoucherLineModel {
	return VoucherLineModel{
		ID:               l.ID,
		VoucherID:        l.VoucherID,
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

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber    string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerRef    string            `gorm:"type:varchar(100)"`
	WarehouseID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status         trade.OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	IdempotencyKey string            `gorm:"type:varchar(100);index"`
	CompletedAt    *time.Time
	Lines          []SalesOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain order
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	o := &trade.SalesOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerRef:       m.CustomerRef,
		WarehouseID:       m.WarehouseID,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		IdempotencyKey:    m.IdempotencyKey,
		CompletedAt:       m.CompletedAt,
		Lines:             make([]trade.SalesOrderLine, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines[i] = m.Lines[i].ToDomain()
	}
	return o
}

// SalesOrderModelFromDomain creates a new model from a domain order
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		OrderNumber:    o.OrderNumber,
		CustomerRef:    o.CustomerRef,
		WarehouseID:    o.WarehouseID,
		Status:         o.Status,
		TotalAmount:    o.TotalAmount,
		IdempotencyKey: o.IdempotencyKey,
		CompletedAt:    o.CompletedAt,
		Lines:          make([]SalesOrderLineModel, len(o.Lines)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, l := range o.Lines {
		m.Lines[i] = SalesOrderLineModel{
			ID:               l.ID,
			OrderID:          l.OrderID,
			LineNo:           i + 1,
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
	return m
}

// SalesOrderLineModel is the persistence model for a sales order line.
type SalesOrderLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo           int             `gorm:"not null;default:0"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_line_uom,priority:1"`
	ProductCode      string          `gorm:"type:varchar(50);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UOM              string          `gorm:"column:uom;type:varchar(20);not null;index:idx_sales_line_uom,priority:2"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	BaseQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain line
func (m *SalesOrderLineModel) ToDomain() trade.SalesOrderLine {
	return trade.SalesOrderLine{
		ID:               m.ID,
		OrderID:          m.OrderID,
		ProductID:        m.ProductID,
		ProductCode:      m.ProductCode,
		Quantity:         m.Quantity,
		UOM:              m.UOM,
		ConversionFactor: m.ConversionFactor,
		BaseQuantity:     m.BaseQuantity,
		UnitPrice:        m.UnitPrice,
		Amount:           m.Amount,
	}
}
