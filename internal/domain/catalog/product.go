package catalog

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable item and the owner of its unit-of-measure list.
type Product struct {
	shared.BaseAggregateRoot
	Code    string
	Name    string
	BaseUOM string
	UOMs    UOMList
	Status  ProductStatus
}

// NewProduct creates a product. When uoms is empty the list holds only the base unit.
func NewProduct(code, name, baseUOM string, uoms UOMList) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	baseUOM = strings.TrimSpace(baseUOM)
	if baseUOM == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Base unit cannot be empty")
	}
	if len(uoms) == 0 {
		uoms = UOMList{NewBaseUOM(baseUOM)}
	}
	if err := uoms.Validate(baseUOM); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		BaseUOM:           baseUOM,
		UOMs:              uoms.clone(),
		Status:            ProductStatusActive,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// ToBase converts quantity in uom to the product's base unit.
func (p *Product) ToBase(quantity decimal.Decimal, uom string) (decimal.Decimal, error) {
	return p.UOMs.ToBase(quantity, uom)
}

// ConversionFactor returns the rate of uom for snapshotting on order lines.
func (p *Product) ConversionFactor(uom string) (decimal.Decimal, error) {
	u, err := p.UOMs.Find(uom)
	if err != nil {
		return decimal.Zero, err
	}
	return u.ConversionToBase, nil
}

// AddUOM declares a new unit.
func (p *Product) AddUOM(u UOM) error {
	next, err := p.UOMs.Add(u)
	if err != nil {
		return err
	}
	p.applyUOMs(next, "added", u.Name)
	return nil
}

// RemoveUOM drops a unit. Historical lines keep their own snapshot, so the
// product does not check whether the unit was ever used.
func (p *Product) RemoveUOM(name string) error {
	next, err := p.UOMs.Remove(name)
	if err != nil {
		return err
	}
	p.applyUOMs(next, "removed", name)
	return nil
}

// UpdateUOMRate changes the conversion rate of a non-base unit.
func (p *Product) UpdateUOMRate(name string, rate decimal.Decimal) error {
	next, err := p.UOMs.Update(name, rate)
	if err != nil {
		return err
	}
	p.applyUOMs(next, "updated", name)
	return nil
}

func (p *Product) applyUOMs(next UOMList, change, uom string) {
	p.UOMs = next
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUOMsChangedEvent(p, change, uom))
}

// Deactivate stops the product from being sold or received.
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
