package models

import (
	"fmt"

	"github.com/erp/stockledger/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
// The unit list is stored as a JSON array column.
type ProductModel struct {
	AggregateModel
	Code    string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name    string                `gorm:"type:varchar(200);not null"`
	BaseUOM string                `gorm:"column:base_uom;type:varchar(20);not null"`
	UOMs    catalog.UOMList       `gorm:"column:uoms;type:jsonb;serializer:json;not null"`
	Status  catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a Product, rejecting a corrupt unit list.
func (m *ProductModel) ToDomain() (*catalog.Product, error) {
	if err := m.UOMs.Validate(m.BaseUOM); err != nil {
		return nil, fmt.Errorf("product %s has invalid units: %w", m.Code, err)
	}
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		BaseUOM:           m.BaseUOM,
		UOMs:              m.UOMs,
		Status:            m.Status,
	}, nil
}

// FromDomain populates the model from a Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.BaseUOM = p.BaseUOM
	m.UOMs = p.UOMs
	m.Status = p.Status
}

// ProductModelFromDomain creates a new model from a Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
