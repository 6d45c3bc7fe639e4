package handler_test

import (
	"net/http"
	"testing"

	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	partnerapp "github.com/erp/stockledger/internal/application/partner"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	engine *gin.Engine
	ledger *testutil.Ledger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	middleware.SetupValidator()

	l := testutil.NewLedger(t, nil)
	inventory := inventoryapp.NewInventoryService(l.Batches, l.Movements, l.Stock, l.Products, l.Warehouses, nil)
	sales := tradeapp.NewSaleWorkflow(l.Orders, l.Products, inventory, l.Stock, tradeapp.DefaultSaleConfig(), nil)
	sales.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())
	receiving := tradeapp.NewReceivingWorkflow(l.Vouchers, l.Products, l.Suppliers, l.Payables, l.Stock,
		cache.NewLocalLocker(), tradeapp.DefaultReceivingConfig(), nil)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.Mount(engine, router.Handlers{
		Products:  handler.NewProductHandler(catalogapp.NewProductService(l.Products, l.Usage, nil)),
		Partners:  handler.NewPartnerHandler(partnerapp.NewPartnerService(l.Suppliers, l.Warehouses, nil)),
		Inventory: handler.NewInventoryHandler(inventory),
		Vouchers:  handler.NewVoucherHandler(tradeapp.NewVoucherService(l.Vouchers, l.Products, l.Suppliers, l.Warehouses, nil), receiving),
		Sales:     handler.NewSalesHandler(sales),
		Payables:  handler.NewPayableHandler(financeapp.NewPayableService(l.Payables, nil)),
		System:    handler.NewSystemHandler(nil, "test"),
	})
	return &testAPI{engine: engine, ledger: l}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) (int, testutil.Envelope) {
	t.Helper()
	return testutil.DoJSON(t, a.engine, method, path, body, headers...)
}

func decode[T any](t *testing.T, env testutil.Envelope) T {
	t.Helper()
	return testutil.DecodeData[T](t, env)
}

func TestProductAPI(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"code":     "COLA",
		"name":     "Cola 330ml",
		"base_uom": "can",
		"uoms":     []map[string]any{{"name": "case", "conversion_to_base": "24"}},
	})
	require.Equal(t, http.StatusCreated, code)
	product := decode[catalogapp.ProductResponse](t, env)
	base := "/api/v1/products/" + product.ID.String()

	t.Run("converts between units", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, base+"/convert", map[string]any{"quantity": "2", "from": "case", "to": "can"})
		require.Equal(t, http.StatusOK, code)
		result := decode[catalogapp.ConvertResponse](t, env)
		assert.Equal(t, "48", result.Result.String())
	})

	t.Run("unknown unit is 422", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, base+"/convert", map[string]any{"quantity": "1", "from": "pallet", "to": "can"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNKNOWN_UOM", env.Error.Code)
		assert.NotEmpty(t, env.Error.RequestID)
	})

	t.Run("non-positive rate is 422", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, base+"/uoms", map[string]any{"name": "pack", "conversion_to_base": "0"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "INVALID_CONVERSION_RATE", env.Error.Code)
	})

	t.Run("adds and removes a unit", func(t *testing.T) {
		code, _ := api.do(t, http.MethodPost, base+"/uoms", map[string]any{"name": "pack", "conversion_to_base": "6"})
		require.Equal(t, http.StatusCreated, code)

		code, env := api.do(t, http.MethodDelete, base+"/uoms/pack", nil)
		require.Equal(t, http.StatusOK, code)
		result := decode[catalogapp.RemoveUOMResult](t, env)
		assert.Nil(t, result.Warning)
		assert.False(t, result.Product.UOMs.Has("pack"))
	})

	t.Run("duplicate code is 409", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/products", map[string]any{"code": "COLA", "name": "again", "base_uom": "can"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/products", map[string]any{"name": "no code"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Contains(t, string(env.Error.Details), `"field":"code"`)
	})

	t.Run("lookup errors", func(t *testing.T) {
		code, env := api.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)

		code, env = api.do(t, http.MethodGet, "/api/v1/products/"+testutil.NewTestUUID("missing").String(), nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("lists filter by status", func(t *testing.T) {
		code, env := api.do(t, http.MethodGet, "/api/v1/products?status=active", nil)
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, env.Meta)
		assert.EqualValues(t, 1, env.Meta.Total)

		code, env = api.do(t, http.MethodGet, "/api/v1/products?status=inactive", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Zero(t, env.Meta.Total)

		api.ledger.Supplier(t, "ACME", 30)
		code, env = api.do(t, http.MethodGet, "/api/v1/suppliers?status=active", nil)
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 1, env.Meta.Total)

		code, env = api.do(t, http.MethodGet, "/api/v1/warehouses?status=archived", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestReceiveThenSellAPI(t *testing.T) {
	api := newTestAPI(t)
	l := api.ledger
	supplier := l.Supplier(t, "ACME", 30)
	wh := l.Warehouse(t, "STORE-1")
	cola := l.Product(t, "COLA", "can", "case", 24)

	code, env := api.do(t, http.MethodPost, "/api/v1/vouchers", map[string]any{
		"supplier_id":  supplier.ID,
		"warehouse_id": wh.ID,
		"lines": []map[string]any{
			{"product_id": cola.ID, "quantity": "2", "uom": "case", "unit_cost": "12"},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	voucher := decode[tradeapp.VoucherResponse](t, env)
	voucherPath := "/api/v1/vouchers/" + voucher.ID.String()

	code, env = api.do(t, http.MethodPost, voucherPath+"/receive", nil)
	assert.Equal(t, http.StatusConflict, code, "draft vouchers cannot be received")
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	code, _ = api.do(t, http.MethodPost, voucherPath+"/submit", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(t, http.MethodPost, voucherPath+"/receive", nil, middleware.HeaderOperator, "clerk-1")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Warnings)
	received := decode[tradeapp.ReceiveResult](t, env)
	require.Len(t, received.Lines, 1)
	assert.Equal(t, "48", received.Lines[0].Applied.String())
	require.NotNil(t, received.Payable)
	assert.Equal(t, "24", received.Payable.Amount.String())

	sale := map[string]any{
		"warehouse_id": wh.ID,
		"lines": []map[string]any{
			{"product_id": cola.ID, "quantity": "1", "uom": "case", "unit_price": "20"},
			{"product_id": cola.ID, "quantity": "3", "unit_price": "1"},
		},
	}

	t.Run("sale decrements stock once per product", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/sales", sale, handler.IdempotencyKeyHeader, "till-1-0001")
		require.Equal(t, http.StatusCreated, code)
		result := decode[tradeapp.SaleResult](t, env)
		require.Len(t, result.Decrements, 1)
		assert.Equal(t, "27", result.Decrements[0].Quantity.String())
		assert.Equal(t, "21", l.RequireBalanced(t, cola.ID, wh.ID).String())

		code, env = api.do(t, http.MethodGet, "/api/v1/sales/"+result.Order.ID.String(), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, result.Order.OrderNumber, decode[tradeapp.SalesOrderResponse](t, env).OrderNumber)
	})

	t.Run("replayed idempotency key is 409", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/sales", sale, handler.IdempotencyKeyHeader, "till-1-0001")
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
	})

	t.Run("short cart is 422 with shortfalls", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/sales", map[string]any{
			"warehouse_id": wh.ID,
			"lines":        []map[string]any{{"product_id": cola.ID, "quantity": "1", "uom": "case"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
		assert.Contains(t, string(env.Error.Details), cola.ID.String())
	})

	t.Run("availability reports without failing", func(t *testing.T) {
		code, env := api.do(t, http.MethodPost, "/api/v1/inventory/availability", map[string]any{
			"warehouse_id": wh.ID,
			"lines":        []map[string]any{{"product_id": cola.ID, "quantity": "1", "uom": "case"}},
		})
		require.Equal(t, http.StatusOK, code)
		assert.False(t, decode[inventoryapp.AvailabilityResult](t, env).Valid)
	})

	t.Run("history and reconciliation", func(t *testing.T) {
		query := "?product_id=" + cola.ID.String() + "&warehouse_id=" + wh.ID.String()

		code, env := api.do(t, http.MethodGet, "/api/v1/inventory/movements"+query, nil)
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(2), env.Meta.Total)

		code, env = api.do(t, http.MethodGet, "/api/v1/inventory/reconcile"+query, nil)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, decode[inventoryapp.ReconcileResult](t, env).Consistent)

		code, env = api.do(t, http.MethodGet, "/api/v1/inventory/batches?product_id=bad", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("payable is listed and paid", func(t *testing.T) {
		code, env := api.do(t, http.MethodGet, "/api/v1/payables?supplier_id="+supplier.ID.String(), nil)
		require.Equal(t, http.StatusOK, code)
		payables := decode[[]financeapp.PayableResponse](t, env)
		require.Len(t, payables, 1)

		code, env = api.do(t, http.MethodPost, "/api/v1/payables/"+payables[0].ID.String()+"/pay", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "paid", decode[financeapp.PayableResponse](t, env).Status)
	})
}

func TestInventoryCorrectionsAPI(t *testing.T) {
	api := newTestAPI(t)
	l := api.ledger
	wh := l.Warehouse(t, "WH-1")
	other := l.Warehouse(t, "WH-2")
	chips := l.Product(t, "CHIPS", "bag")
	batch := l.AddStock(t, chips.ID, wh.ID, 10, nil)

	code, env := api.do(t, http.MethodPost, "/api/v1/inventory/adjust", map[string]any{
		"product_id":   chips.ID,
		"warehouse_id": wh.ID,
		"delta":        "-2",
		"reason":       "shelf count",
	}, middleware.HeaderOperator, "auditor")
	require.Equal(t, http.StatusCreated, code)
	adjusted := decode[inventoryapp.StockChangeResponse](t, env)
	require.NotEmpty(t, adjusted.Movements)
	assert.Equal(t, "auditor", adjusted.Movements[0].CreatedBy)

	code, _ = api.do(t, http.MethodPost, "/api/v1/inventory/transfer", map[string]any{
		"product_id":        chips.ID,
		"from_warehouse_id": wh.ID,
		"to_warehouse_id":   other.ID,
		"quantity":          "3",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "5", l.RequireBalanced(t, chips.ID, wh.ID).String())

	code, env = api.do(t, http.MethodPost, "/api/v1/inventory/transfer", map[string]any{
		"product_id":        chips.ID,
		"from_warehouse_id": wh.ID,
		"to_warehouse_id":   uuid.New(),
		"quantity":          "1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "UNKNOWN_WAREHOUSE", env.Error.Code)
	assert.Equal(t, "5", l.RequireBalanced(t, chips.ID, wh.ID).String())
	assert.Equal(t, "3", l.RequireBalanced(t, chips.ID, other.ID).String())

	code, _ = api.do(t, http.MethodPost, "/api/v1/inventory/batches/"+batch.ID.String()+"/damage", map[string]any{"reason": "water damage"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, l.RequireBalanced(t, chips.ID, wh.ID).IsZero())

	code, env = api.do(t, http.MethodPost, "/api/v1/inventory/allocate", map[string]any{
		"product_id":   chips.ID,
		"warehouse_id": wh.ID,
		"quantity":     "1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	code, env := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}
