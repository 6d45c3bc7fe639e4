package models

import (
	"github.com/erp/stockledger/internal/domain/partner"
)

// SupplierModel is the persistence model for the Supplier aggregate root.
type SupplierModel struct {
	AggregateModel
	Code            string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string                 `gorm:"type:varchar(200);not null"`
	Status          partner.SupplierStatus `gorm:"type:varchar(20);not null;default:'active'"`
	PaymentTermDays int                    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		PaymentTermDays:   m.PaymentTermDays,
	}
}

// SupplierModelFromDomain creates a new model from a domain supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{
		Code:            s.Code,
		Name:            s.Name,
		Status:          s.Status,
		PaymentTermDays: s.PaymentTermDays,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// WarehouseModel is the persistence model for the Warehouse aggregate root.
type WarehouseModel struct {
	AggregateModel
	Code      string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string                  `gorm:"type:varchar(200);not null"`
	Status    partner.WarehouseStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsDefault bool                    `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain warehouse
func (m *WarehouseModel) ToDomain() *partner.Warehouse {
	return &partner.Warehouse{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		IsDefault:         m.IsDefault,
	}
}

// WarehouseModelFromDomain creates a new model from a domain warehouse
func WarehouseModelFromDomain(w *partner.Warehouse) *WarehouseModel {
	m := &WarehouseModel{
		Code:      w.Code,
		Name:      w.Name,
		Status:    w.Status,
		IsDefault: w.IsDefault,
	}
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	return m
}
