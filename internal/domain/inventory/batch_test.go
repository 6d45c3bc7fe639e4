package inventory

import (
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInventoryBatch(t *testing.T) {
	productID, warehouseID := uuid.New(), uuid.New()

	t.Run("creates active batch", func(t *testing.T) {
		b, err := NewInventoryBatch(productID, warehouseID, " B-1 ", decimal.NewFromInt(10), decimal.RequireFromString("1.5"), time.Now(), nil)
		require.NoError(t, err)
		assert.Equal(t, "B-1", b.BatchNumber)
		assert.Equal(t, BatchStatusActive, b.Status)
		assert.True(t, b.IsAllocatable())
	})

	t.Run("zero quantity batch is kept but not allocatable", func(t *testing.T) {
		b, err := NewInventoryBatch(productID, warehouseID, "B-0", decimal.Zero, decimal.Zero, time.Now(), nil)
		require.NoError(t, err)
		assert.False(t, b.IsAllocatable())
	})

	t.Run("rejects fractional base quantity", func(t *testing.T) {
		_, err := NewInventoryBatch(productID, warehouseID, "B-2", decimal.RequireFromString("2.5"), decimal.Zero, time.Now(), nil)
		assert.ErrorIs(t, err, ErrFractionalQuantity)
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewInventoryBatch(productID, warehouseID, "B-3", decimal.NewFromInt(1), decimal.NewFromInt(-1), time.Now(), nil)
		require.Error(t, err)
	})

	t.Run("rejects missing product", func(t *testing.T) {
		_, err := NewInventoryBatch(uuid.Nil, warehouseID, "B-4", decimal.NewFromInt(1), decimal.Zero, time.Now(), nil)
		require.Error(t, err)
	})
}

func TestInventoryBatch_DeductAndIncrease(t *testing.T) {
	b, err := NewInventoryBatch(uuid.New(), uuid.New(), "B-1", decimal.NewFromInt(10), decimal.NewFromInt(2), time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, b.Deduct(decimal.NewFromInt(4)))
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(6)))

	assert.ErrorIs(t, b.Deduct(decimal.NewFromInt(7)), shared.ErrInsufficientStock)
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(6)))

	require.NoError(t, b.Increase(decimal.NewFromInt(4)))
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(10)))

	require.NoError(t, b.MarkDamaged())
	assert.ErrorIs(t, b.Deduct(decimal.NewFromInt(1)), ErrBatchNotActive)
	assert.ErrorIs(t, b.MarkExpired(), ErrBatchNotActive)
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(10)), "retired batch keeps its quantity on record")
}

func TestInventoryBatch_IsExpiredAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	b, err := NewInventoryBatch(uuid.New(), uuid.New(), "B-1", decimal.NewFromInt(1), decimal.Zero, now, &past)
	require.NoError(t, err)
	assert.True(t, b.IsExpiredAt(now))

	b.ExpiryDate = nil
	assert.False(t, b.IsExpiredAt(now))
}

func TestDeterministicBatchNumber(t *testing.T) {
	voucherID, lineA, lineB := uuid.New(), uuid.New(), uuid.New()

	first := DeterministicBatchNumber(voucherID, lineA)
	assert.Equal(t, first, DeterministicBatchNumber(voucherID, lineA))
	assert.NotEqual(t, first, DeterministicBatchNumber(voucherID, lineB))
	assert.NotEqual(t, first, DeterministicBatchNumber(uuid.New(), lineA))
	assert.Len(t, first, 20)
	assert.Regexp(t, `^RCV-[0-9A-F]{16}$`, first)
}
