package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
}

func TestLedgerFixture(t *testing.T) {
	l := NewLedger(t, nil)
	ctx := context.Background()

	cola := l.Product(t, "COLA", "can", "case", 24)
	wh := l.Warehouse(t, "WH-1")

	found, err := l.Products.FindByID(ctx, cola.ID)
	require.NoError(t, err)
	assert.True(t, found.UOMs.Has("case"))

	l.AddStock(t, cola.ID, wh.ID, 30, nil)
	l.AddStock(t, cola.ID, wh.ID, "12", nil)

	total := l.RequireBalanced(t, cola.ID, wh.ID)
	assert.True(t, total.Equal(decimal.NewFromInt(42)), total.String())

	_, err = l.Stock.Increase(ctx, inventory.IncreaseRequest{
		ProductID:   cola.ID,
		WarehouseID: wh.ID,
		BatchNumber: "B-HALF",
		Quantity:    decimal.RequireFromString("12.5"),
		UnitCost:    decimal.NewFromInt(1),
		Type:        inventory.MovementTypeAdjustment,
		ReferenceID: "fixture",
		Reason:      "fixture stock",
	})
	require.ErrorIs(t, err, inventory.ErrFractionalQuantity)
	assert.True(t, l.RequireBalanced(t, cola.ID, wh.ID).Equal(decimal.NewFromInt(42)))
}

func TestRequireEventually(t *testing.T) {
	var n int32
	go func() {
		time.Sleep(10 * time.Millisecond)
		atomic.StoreInt32(&n, 1)
	}()
	RequireEventually(t, func() bool { return atomic.LoadInt32(&n) == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewEventRecorder()

	m, err := inventory.NewStockMovement(uuid.New(), uuid.New(), inventory.MovementTypeSale, decimal.NewFromInt(-2), "order-1", "")
	require.NoError(t, err)
	moved := inventory.NewStockMovedEvent(m)
	require.NoError(t, r.Publish(ctx, moved, nil))
	require.NoError(t, r.Handle(ctx, moved))

	assert.Equal(t, []string{inventory.EventTypeStockMoved, inventory.EventTypeStockMoved}, r.Types())
	assert.Len(t, r.OfType(inventory.EventTypeStockMoved), 2)
	assert.Empty(t, r.OfType(inventory.EventTypeBatchRetired))
	assert.Nil(t, r.EventTypes())

	r.FailWith(errors.New("broker down"))
	assert.Error(t, r.Publish(ctx, moved))
	assert.Len(t, r.Events(), 3)
}

func TestDoJSON(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, err.Error()))
			return
		}
		body["terminal"] = c.GetHeader("X-Terminal-ID")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})

	code, env := DoJSON(t, engine, http.MethodPost, "/echo", map[string]string{"sku": "COLA"}, "X-Terminal-ID", "till-3")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	data := DecodeData[map[string]string](t, env)
	assert.Equal(t, "COLA", data["sku"])
	assert.Equal(t, "till-3", data["terminal"])

	code, env = DoJSON(t, engine, http.MethodPost, "/echo", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	RequireErrorCode(t, env, dto.ErrCodeBadRequest)
}
