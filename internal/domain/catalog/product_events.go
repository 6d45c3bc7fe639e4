package catalog

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated     = "ProductCreated"
	EventTypeProductUOMsChanged = "ProductUOMsChanged"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	BaseUOM   string    `json:"base_uom"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
		BaseUOM:         p.BaseUOM,
	}
}

// ProductUOMsChangedEvent is published when a unit is added, removed or re-rated
type ProductUOMsChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Change    string    `json:"change"`
	UOM       string    `json:"uom"`
	UOMs      UOMList   `json:"uoms"`
}

// NewProductUOMsChangedEvent creates a new ProductUOMsChangedEvent
func NewProductUOMsChangedEvent(p *Product, change, uom string) *ProductUOMsChangedEvent {
	return &ProductUOMsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUOMsChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Change:          change,
		UOM:             uom,
		UOMs:            p.UOMs.clone(),
	}
}
