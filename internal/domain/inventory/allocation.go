package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockShortfall describes one product whose request exceeds on-hand stock
type StockShortfall struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

// Missing returns how much of the request cannot be served
func (s StockShortfall) Missing() decimal.Decimal {
	return s.Requested.Sub(s.Available)
}

// InsufficientStockError carries the shortfall detail per product
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

// NewInsufficientStockError builds the error for a single product
func NewInsufficientStockError(productID, warehouseID uuid.UUID, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{Shortfalls: []StockShortfall{{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Available:   available,
	}}}
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("product %s requested %s available %s", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// Shortfall returns the total quantity missing across all products
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shortfalls {
		total = total.Add(s.Missing())
	}
	return total
}

// AllocationLine is one batch draw of an allocation plan
type AllocationLine struct {
	BatchID       uuid.UUID       `json:"batch_id"`
	BatchNumber   string          `json:"batch_number"`
	QuantityTaken decimal.Decimal `json:"quantity_taken"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
}

// Cost returns QuantityTaken x UnitCost
func (l AllocationLine) Cost() decimal.Decimal {
	return l.QuantityTaken.Mul(l.UnitCost)
}

// AllocationPlan is the ordered set of batch draws that satisfies a request
type AllocationPlan struct {
	ProductID           uuid.UUID        `json:"product_id"`
	WarehouseID         uuid.UUID        `json:"warehouse_id"`
	Requested           decimal.Decimal  `json:"requested"`
	Lines               []AllocationLine `json:"lines"`
	TotalCost           decimal.Decimal  `json:"total_cost"`
	WeightedAverageCost decimal.Decimal  `json:"weighted_average_cost"`
}

// SortFIFO returns the batches ordered for consumption: earliest expiry
// first with non-perishable batches last, then oldest receipt first.
func SortFIFO(batches []InventoryBatch) []InventoryBatch {
	sorted := make([]InventoryBatch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate != nil:
			if !a.ExpiryDate.Equal(*b.ExpiryDate) {
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		case a.ExpiryDate != nil:
			return true
		case b.ExpiryDate != nil:
			return false
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return sorted
}

// PlanAllocation walks the allocatable batches in FIFO order until requested
// is satisfied. It never returns a partial plan: when the batches run out it
// returns an InsufficientStockError carrying the shortfall.
func PlanAllocation(productID, warehouseID uuid.UUID, requested decimal.Decimal, batches []InventoryBatch) (*AllocationPlan, error) {
	if !requested.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	candidates := make([]InventoryBatch, 0, len(batches))
	for i := range batches {
		if batches[i].IsAllocatable() {
			candidates = append(candidates, batches[i])
		}
	}
	candidates = SortFIFO(candidates)

	available := SumQuantity(candidates)
	if available.LessThan(requested) {
		return nil, NewInsufficientStockError(productID, warehouseID, requested, available)
	}

	plan := &AllocationPlan{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Lines:       make([]AllocationLine, 0, len(candidates)),
		TotalCost:   decimal.Zero,
	}
	remaining := requested
	for _, b := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.Quantity)
		line := AllocationLine{
			BatchID:       b.ID,
			BatchNumber:   b.BatchNumber,
			QuantityTaken: take,
			UnitCost:      b.UnitCost,
			ExpiryDate:    b.ExpiryDate,
		}
		plan.Lines = append(plan.Lines, line)
		plan.TotalCost = plan.TotalCost.Add(line.Cost())
		remaining = remaining.Sub(take)
	}
	plan.WeightedAverageCost = plan.TotalCost.Div(requested).Round(4)
	return plan, nil
}
