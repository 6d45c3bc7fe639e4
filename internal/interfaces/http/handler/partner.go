package handler

import (
	partnerapp "github.com/erp/stockledger/internal/application/partner"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PartnerHandler serves suppliers and warehouses
type PartnerHandler struct {
	BaseHandler
	partnerService *partnerapp.PartnerService
}

// statusListQuery adds an optional status filter to the paging parameters
type statusListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=active inactive"`
}

func (q statusListQuery) filter() shared.Filter {
	return q.Filter().Where("status", q.Status)
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService *partnerapp.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// CreateSupplier handles POST /suppliers
func (h *PartnerHandler) CreateSupplier(c *gin.Context) {
	var req partnerapp.CreateSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	supplier, err := h.partnerService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// GetSupplier handles GET /suppliers/:id
func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	supplier, err := h.partnerService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// ListSuppliers handles GET /suppliers
func (h *PartnerHandler) ListSuppliers(c *gin.Context) {
	var req statusListQuery
	if !h.bindQuery(c, &req) {
		return
	}
	filter := req.filter()
	suppliers, total, err := h.partnerService.ListSuppliers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, suppliers, total, filter.Page, filter.PageSize)
}

// CreateWarehouse handles POST /warehouses
func (h *PartnerHandler) CreateWarehouse(c *gin.Context) {
	var req partnerapp.CreateWarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	warehouse, err := h.partnerService.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, warehouse)
}

// GetWarehouse handles GET /warehouses/:id
func (h *PartnerHandler) GetWarehouse(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	warehouse, err := h.partnerService.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouse)
}

// ListWarehouses handles GET /warehouses
func (h *PartnerHandler) ListWarehouses(c *gin.Context) {
	var req statusListQuery
	if !h.bindQuery(c, &req) {
		return
	}
	filter := req.filter()
	warehouses, total, err := h.partnerService.ListWarehouses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, warehouses, total, filter.Page, filter.PageSize)
}
