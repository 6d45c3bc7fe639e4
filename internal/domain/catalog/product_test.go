package catalog

import (
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with base unit only", func(t *testing.T) {
		p, err := NewProduct("sku-001", "Mineral Water", "piece", nil)
		require.NoError(t, err)

		assert.Equal(t, "SKU-001", p.Code)
		assert.Equal(t, "piece", p.BaseUOM)
		require.Len(t, p.UOMs, 1)
		assert.True(t, p.UOMs[0].IsBase)
		assert.True(t, p.IsActive())
		assert.Equal(t, 1, p.GetVersion())

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("accepts a full unit list", func(t *testing.T) {
		p, err := NewProduct("SKU-002", "Cola", "piece", beverageUOMs())
		require.NoError(t, err)
		assert.Len(t, p.UOMs, 4)
	})

	t.Run("rejects a list whose base does not match", func(t *testing.T) {
		_, err := NewProduct("SKU-003", "Cola", "bottle", beverageUOMs())
		assert.ErrorIs(t, err, ErrInvalidUOMList)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewProduct(" ", "Cola", "piece", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("rejects empty base unit", func(t *testing.T) {
		_, err := NewProduct("SKU-004", "Cola", "", nil)
		require.Error(t, err)
	})
}

func TestProduct_UOMMutations(t *testing.T) {
	p, err := NewProduct("SKU-010", "Juice", "piece", nil)
	require.NoError(t, err)
	p.ClearDomainEvents()

	require.NoError(t, p.AddUOM(NewUOM("case", decimal.NewFromInt(12))))
	assert.Equal(t, 2, p.GetVersion())

	factor, err := p.ConversionFactor("case")
	require.NoError(t, err)
	assert.True(t, factor.Equal(decimal.NewFromInt(12)))

	require.NoError(t, p.UpdateUOMRate("case", decimal.NewFromInt(24)))
	base, err := p.ToBase(decimal.NewFromInt(2), "case")
	require.NoError(t, err)
	assert.True(t, base.Equal(decimal.NewFromInt(48)))

	require.NoError(t, p.RemoveUOM("case"))
	_, err = p.ToBase(decimal.NewFromInt(2), "case")
	assert.ErrorIs(t, err, shared.ErrUnknownUOM)

	events := p.GetDomainEvents()
	require.Len(t, events, 3)
	changed, ok := events[2].(*ProductUOMsChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "removed", changed.Change)
	assert.Equal(t, "case", changed.UOM)

	assert.ErrorIs(t, p.RemoveUOM("piece"), ErrBaseUOMImmutable)
	assert.Equal(t, 4, p.GetVersion())
}

func TestProduct_Deactivate(t *testing.T) {
	p, err := NewProduct("SKU-020", "Bread", "loaf", nil)
	require.NoError(t, err)

	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.Error(t, p.Deactivate())
}
