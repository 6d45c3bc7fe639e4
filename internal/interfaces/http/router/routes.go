package router

import (
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers holds every handler the API serves
type Handlers struct {
	Products  *handler.ProductHandler
	Partners  *handler.PartnerHandler
	Inventory *handler.InventoryHandler
	Vouchers  *handler.VoucherHandler
	Sales     *handler.SalesHandler
	Payables  *handler.PayableHandler
	System    *handler.SystemHandler
}

// Groups builds the route groups of the ledger API
func Groups(h Handlers) []RouteRegistrar {
	products := NewDomainGroup("catalog", "/products").
		POST("", h.Products.Create).
		GET("", h.Products.List).
		GET("/:id", h.Products.GetByID).
		POST("/:id/uoms", h.Products.AddUOM).
		PUT("/:id/uoms/:name", h.Products.UpdateUOM).
		DELETE("/:id/uoms/:name", h.Products.RemoveUOM).
		POST("/:id/convert", h.Products.Convert)

	suppliers := NewDomainGroup("suppliers", "/suppliers").
		POST("", h.Partners.CreateSupplier).
		GET("", h.Partners.ListSuppliers).
		GET("/:id", h.Partners.GetSupplier)

	warehouses := NewDomainGroup("warehouses", "/warehouses").
		POST("", h.Partners.CreateWarehouse).
		GET("", h.Partners.ListWarehouses).
		GET("/:id", h.Partners.GetWarehouse)

	inventory := NewDomainGroup("inventory", "/inventory").
		GET("/batches", h.Inventory.ListBatches).
		POST("/batches/:id/damage", h.Inventory.MarkDamaged).
		POST("/allocate", h.Inventory.Allocate).
		POST("/availability", h.Inventory.CheckAvailability).
		GET("/movements", h.Inventory.ListMovements).
		POST("/adjust", h.Inventory.Adjust).
		POST("/transfer", h.Inventory.Transfer).
		GET("/reconcile", h.Inventory.Reconcile)

	vouchers := NewDomainGroup("vouchers", "/vouchers").
		POST("", h.Vouchers.Create).
		GET("", h.Vouchers.List).
		GET("/:id", h.Vouchers.GetByID).
		PUT("/:id/lines", h.Vouchers.ReplaceLines).
		POST("/:id/submit", h.Vouchers.Submit).
		POST("/:id/order", h.Vouchers.MarkOrdered).
		POST("/:id/cancel", h.Vouchers.Cancel).
		POST("/:id/receive", h.Vouchers.Receive)

	sales := NewDomainGroup("sales", "/sales").
		POST("", h.Sales.Complete).
		GET("/:id", h.Sales.GetByID)

	payables := NewDomainGroup("payables", "/payables").
		GET("", h.Payables.List).
		GET("/:id", h.Payables.GetByID).
		POST("/:id/pay", h.Payables.MarkPaid)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.Info)

	return []RouteRegistrar{products, suppliers, warehouses, inventory, vouchers, sales, payables, system}
}

// Mount registers the API groups under /api/v1 and the liveness probe at
// both /health and /api/v1/health.
func Mount(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)
	r := NewRouter(engine).Register(Groups(h)...)
	r.Setup()
	engine.GET("/api/"+r.apiVersion+"/health", h.System.Health)
}
