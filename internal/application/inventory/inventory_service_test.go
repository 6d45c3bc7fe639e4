package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newService(t *testing.T) (*InventoryService, *testutil.Ledger) {
	t.Helper()
	l := testutil.NewLedger(t, nil)
	return NewInventoryService(l.Batches, l.Movements, l.Stock, l.Products, l.Warehouses, nil), l
}

func TestInventoryService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	a := l.Product(t, "A", "pcs")
	b := l.Product(t, "B", "pcs")
	wh := l.Warehouse(t, "WH-1")
	l.AddStock(t, a.ID, wh.ID, 8, nil)
	l.AddStock(t, b.ID, wh.ID, 5, nil)

	t.Run("demand is summed per product", func(t *testing.T) {
		result, err := svc.CheckAvailability(ctx, wh.ID, []RequestedLine{
			{ProductID: a.ID, BaseQuantity: d("6")},
			{ProductID: b.ID, BaseQuantity: d("1")},
			{ProductID: a.ID, BaseQuantity: d("4")},
		})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.Len(t, result.Shortfalls, 1)
		s := result.Shortfalls[0]
		assert.Equal(t, a.ID, s.ProductID)
		assert.True(t, s.Requested.Equal(d("10")))
		assert.True(t, s.Available.Equal(d("8")))

		err = result.Error()
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		var stockErr *inventory.InsufficientStockError
		assert.True(t, errors.As(err, &stockErr))
	})

	t.Run("exact stock is enough", func(t *testing.T) {
		result, err := svc.CheckAvailability(ctx, wh.ID, []RequestedLine{{ProductID: a.ID, BaseQuantity: d("8")}})
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Shortfalls)
		assert.NoError(t, result.Error())
	})

	t.Run("product without stock", func(t *testing.T) {
		c := l.Product(t, "C", "pcs")
		result, err := svc.CheckAvailability(ctx, wh.ID, []RequestedLine{{ProductID: c.ID, BaseQuantity: d("1")}})
		require.NoError(t, err)
		require.Len(t, result.Shortfalls, 1)
		assert.True(t, result.Shortfalls[0].Available.IsZero())
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := svc.CheckAvailability(ctx, wh.ID, []RequestedLine{{ProductID: a.ID, BaseQuantity: decimal.Zero}})
		assert.Error(t, err)
	})
}

func TestInventoryService_CheckCart(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	cola := l.Product(t, "COLA", "can", "case", 24)
	wh := l.Warehouse(t, "WH-1")
	l.AddStock(t, cola.ID, wh.ID, 30, nil)

	result, err := svc.CheckCart(ctx, AvailabilityRequest{WarehouseID: wh.ID, Lines: []CartLine{
		{ProductID: cola.ID, Quantity: d("1"), UOM: "case"},
		{ProductID: cola.ID, Quantity: d("7")},
	}})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Shortfalls[0].Requested.Equal(d("31")))

	_, err = svc.CheckCart(ctx, AvailabilityRequest{WarehouseID: wh.ID, Lines: []CartLine{
		{ProductID: cola.ID, Quantity: d("1"), UOM: "pallet"},
	}})
	assert.ErrorIs(t, err, shared.ErrUnknownUOM)

	_, err = svc.CheckCart(ctx, AvailabilityRequest{WarehouseID: wh.ID, Lines: []CartLine{
		{ProductID: uuid.New(), Quantity: d("1")},
	}})
	assert.ErrorIs(t, err, shared.ErrUnknownProduct)
}

func TestInventoryService_Adjust(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	p := l.Product(t, "A", "pcs")
	wh := l.Warehouse(t, "WH-1")
	l.AddStock(t, p.ID, wh.ID, 10, nil)

	t.Run("positive delta creates a batch", func(t *testing.T) {
		resp, err := svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: d("5"), UnitCost: d("2"), Reason: "count correction"})
		require.NoError(t, err)
		require.Len(t, resp.Batches, 1)
		require.Len(t, resp.Movements, 1)
		assert.True(t, resp.Movements[0].Quantity.Equal(d("5")))
		assert.Equal(t, "adjustment", resp.Movements[0].Type)
	})

	t.Run("negative delta consumes FIFO", func(t *testing.T) {
		resp, err := svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: d("-12"), Reason: "shrinkage"})
		require.NoError(t, err)
		require.NotNil(t, resp.Plan)
		assert.Len(t, resp.Movements, 2)
	})

	t.Run("negative delta beyond stock changes nothing", func(t *testing.T) {
		_, err := svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: d("-4"), Reason: "shrinkage"})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: d("1")})
		assert.ErrorIs(t, err, inventory.ErrMovementReason)
		_, err = svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: decimal.Zero, Reason: "x"})
		assert.ErrorIs(t, err, inventory.ErrZeroMovement)
		_, err = svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: wh.ID, Delta: d("0.5"), Reason: "x"})
		assert.ErrorIs(t, err, inventory.ErrFractionalQuantity)
	})

	t.Run("unknown warehouse books nothing", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Adjust(ctx, AdjustRequest{ProductID: p.ID, WarehouseID: ghost, Delta: d("7"), UnitCost: d("1"), Reason: "count correction"})
		assert.ErrorIs(t, err, shared.ErrUnknownWarehouse)

		sum, err := l.Movements.SumQuantity(ctx, p.ID, ghost)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	total := l.RequireBalanced(t, p.ID, wh.ID)
	assert.True(t, total.Equal(d("3")))

	rec, err := svc.Reconcile(ctx, p.ID, wh.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestInventoryService_Transfer(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	p := l.Product(t, "A", "pcs")
	from := l.Warehouse(t, "WH-1")
	to := l.Warehouse(t, "WH-2")
	l.AddStock(t, p.ID, from.ID, 6, nil)
	l.AddStock(t, p.ID, from.ID, 6, nil)

	resp, err := svc.Transfer(ctx, TransferRequest{ProductID: p.ID, FromWarehouseID: from.ID, ToWarehouseID: to.ID, Quantity: d("9")})
	require.NoError(t, err)
	assert.Len(t, resp.Batches, 2)
	assert.NotEmpty(t, resp.ReferenceID)

	assert.True(t, l.RequireBalanced(t, p.ID, from.ID).Equal(d("3")))
	assert.True(t, l.RequireBalanced(t, p.ID, to.ID).Equal(d("9")))

	_, err = svc.Transfer(ctx, TransferRequest{ProductID: p.ID, FromWarehouseID: from.ID, ToWarehouseID: from.ID, Quantity: d("1")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	t.Run("unknown warehouse on either side moves nothing", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Transfer(ctx, TransferRequest{ProductID: p.ID, FromWarehouseID: from.ID, ToWarehouseID: ghost, Quantity: d("2")})
		assert.ErrorIs(t, err, shared.ErrUnknownWarehouse)
		_, err = svc.Transfer(ctx, TransferRequest{ProductID: p.ID, FromWarehouseID: ghost, ToWarehouseID: to.ID, Quantity: d("2")})
		assert.ErrorIs(t, err, shared.ErrUnknownWarehouse)

		assert.True(t, l.RequireBalanced(t, p.ID, from.ID).Equal(d("3")))
		assert.True(t, l.RequireBalanced(t, p.ID, to.ID).Equal(d("9")))
		sum, err := l.Movements.SumQuantity(ctx, p.ID, ghost)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestInventoryService_MarkDamaged(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	publisher := new(MockEventPublisher)
	svc.SetEventPublisher(publisher)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	p := l.Product(t, "A", "pcs")
	wh := l.Warehouse(t, "WH-1")
	batch := l.AddStock(t, p.ID, wh.ID, 7, nil)
	l.AddStock(t, p.ID, wh.ID, 2, nil)

	resp, err := svc.MarkDamaged(ctx, batch.ID, DamageRequest{Reason: "crushed pallet"})
	require.NoError(t, err)
	assert.Equal(t, "damaged", resp.Batches[0].Status)
	require.Len(t, resp.Movements, 1)
	assert.True(t, resp.Movements[0].Quantity.Equal(d("-7")))
	assert.True(t, l.RequireBalanced(t, p.ID, wh.ID).Equal(d("2")))

	_, err = svc.MarkDamaged(ctx, batch.ID, DamageRequest{Reason: "again"})
	assert.Error(t, err)

	_, err = svc.MarkDamaged(ctx, uuid.New(), DamageRequest{Reason: "missing"})
	assert.ErrorIs(t, err, shared.ErrUnknownBatch)

	publisher.AssertCalled(t, "Publish", ctx, mock.Anything)
}

func TestInventoryService_ListActiveBatchesFIFO(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)
	p := l.Product(t, "MILK", "carton")
	wh := l.Warehouse(t, "WH-1")

	late := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	soon := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	l.AddStock(t, p.ID, wh.ID, 1, nil)
	l.AddStock(t, p.ID, wh.ID, 2, &late)
	l.AddStock(t, p.ID, wh.ID, 3, &soon)

	batches, err := svc.ListActiveBatches(ctx, p.ID, wh.ID)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.True(t, batches[0].Quantity.Equal(d("3")))
	assert.True(t, batches[1].Quantity.Equal(d("2")))
	assert.Nil(t, batches[2].ExpiryDate)

	plan, err := svc.AllocateInUnit(ctx, AllocateRequest{ProductID: p.ID, WarehouseID: wh.ID, Quantity: d("4")})
	require.NoError(t, err)
	require.Len(t, plan.Lines, 2)
	assert.True(t, plan.Lines[0].QuantityTaken.Equal(d("3")))
	assert.True(t, plan.Lines[1].QuantityTaken.Equal(d("1")))

	movements, total, err := svc.ListMovements(ctx, MovementListFilter{ProductID: p.ID, WarehouseID: wh.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, movements, 3)
}
