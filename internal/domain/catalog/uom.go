package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// fromBasePrecision is the number of decimal places kept by FromBase.
const fromBasePrecision = 8

var (
	ErrDuplicateUOM     = shared.NewDomainError("DUPLICATE_UOM", "Unit of measure already declared")
	ErrBaseUOMImmutable = shared.NewDomainError("BASE_UOM_IMMUTABLE", "Base unit cannot be removed or re-rated")
	ErrInvalidUOMList   = shared.NewDomainError("INVALID_UOM_LIST", "Unit of measure list is invalid")
)

// UnknownUOMError is returned when a conversion names a unit the list does not declare.
type UnknownUOMError struct {
	UOM string
}

func (e *UnknownUOMError) Error() string {
	return fmt.Sprintf("unknown unit of measure %q", e.UOM)
}

func (e *UnknownUOMError) Unwrap() error {
	return shared.ErrUnknownUOM
}

// InvalidConversionRateError guards division by a non-positive rate.
type InvalidConversionRateError struct {
	UOM  string
	Rate decimal.Decimal
}

func (e *InvalidConversionRateError) Error() string {
	return fmt.Sprintf("invalid conversion rate %s for unit %q", e.Rate.String(), e.UOM)
}

func (e *InvalidConversionRateError) Unwrap() error {
	return shared.ErrInvalidRate
}

// UOM is one declared unit of a product.
type UOM struct {
	Name             string          `json:"name"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base"`
	IsBase           bool            `json:"is_base"`
}

// NewBaseUOM returns the base entry for name.
func NewBaseUOM(name string) UOM {
	return UOM{Name: strings.TrimSpace(name), ConversionToBase: decimal.NewFromInt(1), IsBase: true}
}

// NewUOM returns a non-base entry.
func NewUOM(name string, rate decimal.Decimal) UOM {
	return UOM{Name: strings.TrimSpace(name), ConversionToBase: rate}
}

// UOMList is the ordered set of units a product declares. Every stock quantity
// is stored in the base unit; the list converts display quantities to and from it.
//
// Mutations return a new list and never check whether historical order lines
// still reference a unit. Lines snapshot their own conversion factor, so
// callers that remove a unit are responsible for warning about history.
type UOMList []UOM

// uomKey folds a unit name for comparison so "Case" and "case" collide.
func uomKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func (l UOMList) index(name string) int {
	key := uomKey(name)
	for i, u := range l {
		if uomKey(u.Name) == key {
			return i
		}
	}
	return -1
}

// Find returns the entry named name.
func (l UOMList) Find(name string) (UOM, error) {
	i := l.index(name)
	if i < 0 {
		return UOM{}, &UnknownUOMError{UOM: name}
	}
	return l[i], nil
}

// Has reports whether name is declared.
func (l UOMList) Has(name string) bool {
	return l.index(name) >= 0
}

// Base returns the base entry.
func (l UOMList) Base() (UOM, bool) {
	for _, u := range l {
		if u.IsBase {
			return u, true
		}
	}
	return UOM{}, false
}

// Names returns the declared unit names in list order.
func (l UOMList) Names() []string {
	names := make([]string, len(l))
	for i, u := range l {
		names[i] = u.Name
	}
	return names
}

// ToBase converts quantity expressed in uom to base units.
func (l UOMList) ToBase(quantity decimal.Decimal, uom string) (decimal.Decimal, error) {
	u, err := l.Find(uom)
	if err != nil {
		return decimal.Zero, err
	}
	return quantity.Mul(u.ConversionToBase), nil
}

// FromBase converts a base quantity to uom.
func (l UOMList) FromBase(baseQuantity decimal.Decimal, uom string) (decimal.Decimal, error) {
	u, err := l.Find(uom)
	if err != nil {
		return decimal.Zero, err
	}
	if !u.ConversionToBase.IsPositive() {
		return decimal.Zero, &InvalidConversionRateError{UOM: u.Name, Rate: u.ConversionToBase}
	}
	return baseQuantity.DivRound(u.ConversionToBase, fromBasePrecision), nil
}

// Between converts quantity from one declared unit to another. It always
// goes through the base unit so every rate has a single source.
func (l UOMList) Between(quantity decimal.Decimal, from, to string) (decimal.Decimal, error) {
	base, err := l.ToBase(quantity, from)
	if err != nil {
		return decimal.Zero, err
	}
	return l.FromBase(base, to)
}

// Add returns a copy of the list with u appended.
func (l UOMList) Add(u UOM) (UOMList, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "unit name cannot be empty")
	}
	if u.IsBase {
		return nil, ErrBaseUOMImmutable
	}
	if !u.ConversionToBase.IsPositive() {
		return nil, &InvalidConversionRateError{UOM: u.Name, Rate: u.ConversionToBase}
	}
	if l.Has(u.Name) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUOM, u.Name)
	}
	out := make(UOMList, len(l), len(l)+1)
	copy(out, l)
	return append(out, u), nil
}

// Remove returns a copy of the list without name. The base entry cannot be removed.
func (l UOMList) Remove(name string) (UOMList, error) {
	i := l.index(name)
	if i < 0 {
		return nil, &UnknownUOMError{UOM: name}
	}
	if l[i].IsBase {
		return nil, ErrBaseUOMImmutable
	}
	out := make(UOMList, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// Update returns a copy of the list with name re-rated. The base entry only
// accepts a rate of exactly 1.
func (l UOMList) Update(name string, rate decimal.Decimal) (UOMList, error) {
	i := l.index(name)
	if i < 0 {
		return nil, &UnknownUOMError{UOM: name}
	}
	if l[i].IsBase {
		if !rate.Equal(decimal.NewFromInt(1)) {
			return nil, ErrBaseUOMImmutable
		}
		return l.clone(), nil
	}
	if !rate.IsPositive() {
		return nil, &InvalidConversionRateError{UOM: l[i].Name, Rate: rate}
	}
	out := l.clone()
	out[i].ConversionToBase = rate
	return out, nil
}

func (l UOMList) clone() UOMList {
	out := make(UOMList, len(l))
	copy(out, l)
	return out
}

// Validate checks the list against baseUOM: exactly one base entry rated 1
// and named baseUOM, unique non-empty names, positive rates.
func (l UOMList) Validate(baseUOM string) error {
	if len(l) == 0 {
		return fmt.Errorf("%w: at least the base unit must be declared", ErrInvalidUOMList)
	}
	seen := make(map[string]struct{}, len(l))
	bases := 0
	for _, u := range l {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("%w: unit name cannot be empty", ErrInvalidUOMList)
		}
		key := uomKey(u.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateUOM, u.Name)
		}
		seen[key] = struct{}{}
		if !u.ConversionToBase.IsPositive() {
			return &InvalidConversionRateError{UOM: u.Name, Rate: u.ConversionToBase}
		}
		if u.IsBase {
			bases++
			if !u.ConversionToBase.Equal(decimal.NewFromInt(1)) {
				return fmt.Errorf("%w: base unit %s must convert at 1", ErrInvalidUOMList, u.Name)
			}
			if uomKey(u.Name) != uomKey(baseUOM) {
				return fmt.Errorf("%w: base unit %s does not match %s", ErrInvalidUOMList, u.Name, baseUOM)
			}
		}
	}
	if bases != 1 {
		return fmt.Errorf("%w: expected exactly one base unit, found %d", ErrInvalidUOMList, bases)
	}
	return nil
}
