package handler

import (
	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// PayableHandler serves accounts payable raised by receiving
type PayableHandler struct {
	BaseHandler
	payableService *financeapp.PayableService
}

// NewPayableHandler creates a new PayableHandler
func NewPayableHandler(payableService *financeapp.PayableService) *PayableHandler {
	return &PayableHandler{payableService: payableService}
}

// List handles GET /payables
func (h *PayableHandler) List(c *gin.Context) {
	var q PartyQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := financeapp.PayableListFilter{
		Status:     q.Status,
		SupplierID: q.supplierID(),
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	payables, total, err := h.payableService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, payables, total, page, pageSize)
}

// GetByID handles GET /payables/:id
func (h *PayableHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payable, err := h.payableService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payable)
}

// MarkPaid handles POST /payables/:id/pay
func (h *PayableHandler) MarkPaid(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payable, err := h.payableService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payable)
}
