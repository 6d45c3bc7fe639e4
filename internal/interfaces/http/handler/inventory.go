package handler

import (
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockQuery selects one product in one warehouse
type StockQuery struct {
	ProductID   string `form:"product_id" binding:"required,uuid"`
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
}

func (q StockQuery) ids() (uuid.UUID, uuid.UUID) {
	return uuid.MustParse(q.ProductID), uuid.MustParse(q.WarehouseID)
}

// MovementQuery pages through the movement history of one product
type MovementQuery struct {
	StockQuery
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// InventoryHandler serves batches, movements and stock corrections
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ListBatches handles GET /inventory/batches. Batches come back in FIFO order.
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	var q StockQuery
	if !h.bindQuery(c, &q) {
		return
	}
	productID, warehouseID := q.ids()
	batches, err := h.inventoryService.ListActiveBatches(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// Allocate handles POST /inventory/allocate. Nothing is written.
func (h *InventoryHandler) Allocate(c *gin.Context) {
	var req inventoryapp.AllocateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	plan, err := h.inventoryService.AllocateInUnit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// CheckAvailability handles POST /inventory/availability. A short cart is a
// 200 with valid=false and the shortfalls.
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	var req inventoryapp.AvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.inventoryService.CheckCart(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListMovements handles GET /inventory/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var q MovementQuery
	if !h.bindQuery(c, &q) {
		return
	}
	productID, warehouseID := q.ids()
	filter := inventoryapp.MovementListFilter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, movements, total, page, pageSize)
}

// Adjust handles POST /inventory/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventoryapp.AdjustRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	result, err := h.inventoryService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Transfer handles POST /inventory/transfer
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req inventoryapp.TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	result, err := h.inventoryService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// MarkDamaged handles POST /inventory/batches/:id/damage
func (h *InventoryHandler) MarkDamaged(c *gin.Context) {
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.DamageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	result, err := h.inventoryService.MarkDamaged(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reconcile handles GET /inventory/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	var q StockQuery
	if !h.bindQuery(c, &q) {
		return
	}
	productID, warehouseID := q.ids()
	result, err := h.inventoryService.Reconcile(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
