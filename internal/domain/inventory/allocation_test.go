package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch(t *testing.T, productID, warehouseID uuid.UUID, number string, qty int64, cost string, received time.Time, expiry *time.Time) InventoryBatch {
	t.Helper()
	b, err := NewInventoryBatch(productID, warehouseID, number, decimal.NewFromInt(qty), decimal.RequireFromString(cost), received, expiry)
	require.NoError(t, err)
	return *b
}

func dayOffset(days int) *time.Time {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}

func TestPlanAllocation_FIFOByExpiry(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	received := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	later := testBatch(t, productID, warehouseID, "B2", 10, "2.00", received, dayOffset(10))
	sooner := testBatch(t, productID, warehouseID, "B1", 5, "1.00", received.Add(time.Hour), dayOffset(1))

	plan, err := PlanAllocation(productID, warehouseID, decimal.NewFromInt(7), []InventoryBatch{later, sooner})
	require.NoError(t, err)

	require.Len(t, plan.Lines, 2)
	assert.Equal(t, sooner.ID, plan.Lines[0].BatchID)
	assert.True(t, plan.Lines[0].QuantityTaken.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, later.ID, plan.Lines[1].BatchID)
	assert.True(t, plan.Lines[1].QuantityTaken.Equal(decimal.NewFromInt(2)))

	// (5*1 + 2*2) / 7
	assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, "1.2857", plan.WeightedAverageCost.StringFixed(4))
}

func TestPlanAllocation_InsufficientStock(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	received := time.Now()
	batches := []InventoryBatch{
		testBatch(t, productID, warehouseID, "B1", 5, "1", received, dayOffset(1)),
		testBatch(t, productID, warehouseID, "B2", 10, "1", received, dayOffset(10)),
	}

	plan, err := PlanAllocation(productID, warehouseID, decimal.NewFromInt(18), batches)
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall().Equal(decimal.NewFromInt(3)))
	require.Len(t, insufficient.Shortfalls, 1)
	assert.True(t, insufficient.Shortfalls[0].Available.Equal(decimal.NewFromInt(15)))
	assert.True(t, insufficient.Shortfalls[0].Requested.Equal(decimal.NewFromInt(18)))
}

func TestPlanAllocation_SkipsInactiveBatches(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	received := time.Now()

	expired := testBatch(t, productID, warehouseID, "OLD", 50, "1", received, dayOffset(-5))
	require.NoError(t, expired.MarkExpired())
	damaged := testBatch(t, productID, warehouseID, "DMG", 50, "1", received, nil)
	require.NoError(t, damaged.MarkDamaged())
	good := testBatch(t, productID, warehouseID, "GOOD", 4, "3", received, nil)

	_, err := PlanAllocation(productID, warehouseID, decimal.NewFromInt(5), []InventoryBatch{expired, damaged, good})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfalls[0].Available.Equal(decimal.NewFromInt(4)))

	plan, err := PlanAllocation(productID, warehouseID, decimal.NewFromInt(4), []InventoryBatch{expired, damaged, good})
	require.NoError(t, err)
	require.Len(t, plan.Lines, 1)
	assert.Equal(t, good.ID, plan.Lines[0].BatchID)
}

func TestPlanAllocation_RejectsNonPositiveRequest(t *testing.T) {
	_, err := PlanAllocation(uuid.New(), uuid.New(), decimal.Zero, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestSortFIFO(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	noExpiryOld := testBatch(t, productID, warehouseID, "N-OLD", 1, "1", jan, nil)
	noExpiryNew := testBatch(t, productID, warehouseID, "N-NEW", 1, "1", feb, nil)
	expSoonNew := testBatch(t, productID, warehouseID, "E-SOON-NEW", 1, "1", feb, dayOffset(3))
	expSoonOld := testBatch(t, productID, warehouseID, "E-SOON-OLD", 1, "1", jan, dayOffset(3))
	expLate := testBatch(t, productID, warehouseID, "E-LATE", 1, "1", jan, dayOffset(30))

	sorted := SortFIFO([]InventoryBatch{noExpiryNew, expLate, noExpiryOld, expSoonNew, expSoonOld})

	got := make([]string, len(sorted))
	for i, b := range sorted {
		got[i] = b.BatchNumber
	}
	assert.Equal(t, []string{"E-SOON-OLD", "E-SOON-NEW", "E-LATE", "N-OLD", "N-NEW"}, got)
}
