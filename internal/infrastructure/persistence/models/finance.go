package models

import (
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountPayableModel is the persistence model for the AccountPayable aggregate root.
type AccountPayableModel struct {
	AggregateModel
	SupplierID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	SourceID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	SourceNumber string                `gorm:"type:varchar(50);not null"`
	Amount       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DueDate      time.Time             `gorm:"not null;index"`
	Status       finance.PayableStatus `gorm:"type:varchar(20);not null;default:'outstanding';index"`
	PaidAt       *time.Time
}

// TableName returns the table name for GORM
func (AccountPayableModel) TableName() string {
	return "accounts_payable"
}

// ToDomain converts the persistence model to a domain payable
func (m *AccountPayableModel) ToDomain() *finance.AccountPayable {
	return &finance.AccountPayable{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SupplierID:        m.SupplierID,
		SourceID:          m.SourceID,
		SourceNumber:      m.SourceNumber,
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		PaidAt:            m.PaidAt,
	}
}

// AccountPayableModelFromDomain creates a new model from a domain payable
func AccountPayableModelFromDomain(ap *finance.AccountPayable) *AccountPayableModel {
	m := &AccountPayableModel{
		SupplierID:   ap.SupplierID,
		SourceID:     ap.SourceID,
		SourceNumber: ap.SourceNumber,
		Amount:       ap.Amount,
		DueDate:      ap.DueDate,
		Status:       ap.Status,
		PaidAt:       ap.PaidAt,
	}
	m.FromDomainAggregateRoot(ap.BaseAggregateRoot)
	return m
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests.
func AllModels() []interface{} {
	return []interface{}{
		&ProductModel{},
		&SupplierModel{},
		&WarehouseModel{},
		&InventoryBatchModel{},
		&StockMovementModel{},
		&PurchaseVoucherModel{},
		&VoucherLineModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&AccountPayableModel{},
	}
}
