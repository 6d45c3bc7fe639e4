package trade

import (
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineQuantity is the quantity of an order line as entered plus the conversion
// that was applied. Both sides are persisted so a line stays readable after the
// product's unit list changes.
type LineQuantity struct {
	Quantity         decimal.Decimal
	UOM              string
	ConversionFactor decimal.Decimal
	BaseQuantity     decimal.Decimal
}

// NewLineQuantity converts quantity in uom through the product's unit list
func NewLineQuantity(product *catalog.Product, quantity decimal.Decimal, uom string) (LineQuantity, error) {
	if !quantity.IsPositive() {
		return LineQuantity{}, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if uom == "" {
		uom = product.BaseUOM
	}
	u, err := product.UOMs.Find(uom)
	if err != nil {
		return LineQuantity{}, err
	}
	base, err := product.UOMs.ToBase(quantity, u.Name)
	if err != nil {
		return LineQuantity{}, err
	}
	if !inventory.IsWholeQuantity(base) {
		return LineQuantity{}, inventory.ErrFractionalQuantity
	}
	return LineQuantity{
		Quantity:         quantity,
		UOM:              u.Name,
		ConversionFactor: u.ConversionToBase,
		BaseQuantity:     base,
	}, nil
}

// PerBase converts a price or cost per display unit to one per base unit
func (q LineQuantity) PerBase(perUnit decimal.Decimal) decimal.Decimal {
	if !q.ConversionFactor.IsPositive() {
		return perUnit
	}
	return perUnit.DivRound(q.ConversionFactor, 4)
}
