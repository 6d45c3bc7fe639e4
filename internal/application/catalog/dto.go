package catalog

import (
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UOMInput is a unit of measure as entered
type UOMInput struct {
	Name             string          `json:"name" binding:"required,max=50"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base" binding:"required"`
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code    string     `json:"code" binding:"required,min=1,max=50"`
	Name    string     `json:"name" binding:"required,min=1,max=200"`
	BaseUOM string     `json:"base_uom" binding:"required,max=50"`
	UOMs    []UOMInput `json:"uoms" binding:"dive"`
}

// UpdateUOMRequest changes the rate of a non-base unit
type UpdateUOMRequest struct {
	ConversionToBase decimal.Decimal `json:"conversion_to_base" binding:"required"`
}

// ConvertRequest asks for a quantity expressed in another unit
type ConvertRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	From     string          `json:"from" binding:"required"`
	To       string          `json:"to" binding:"required"`
}

// ConvertResponse is the result of a unit conversion
type ConvertResponse struct {
	Quantity     decimal.Decimal `json:"quantity"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Result       decimal.Decimal `json:"result"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
}

// ProductListFilter represents filter options for product listings
type ProductListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	BaseUOM   string          `json:"base_uom"`
	UOMs      catalog.UOMList `json:"uoms"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

// UOMCompatibilityWarning reports historical lines still recorded in a removed unit.
// The lines keep their snapshotted conversion factor, but new lines can no
// longer be entered in that unit. Unverified is set when the lines could not
// be counted, in which case LineCount is meaningless.
type UOMCompatibilityWarning struct {
	UOM        string `json:"uom"`
	LineCount  int64  `json:"line_count"`
	Unverified bool   `json:"unverified,omitempty"`
	Message    string `json:"message"`
}

// RemoveUOMResult is the product after removal plus an optional warning
type RemoveUOMResult struct {
	Product ProductResponse          `json:"product"`
	Warning *UOMCompatibilityWarning `json:"warning,omitempty"`
}

// ToProductResponse converts a domain product to its response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		BaseUOM:   p.BaseUOM,
		UOMs:      p.UOMs,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}
