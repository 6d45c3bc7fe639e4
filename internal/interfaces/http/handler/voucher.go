package handler

import (
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// VoucherHandler serves purchase vouchers and receiving
type VoucherHandler struct {
	BaseHandler
	voucherService *tradeapp.VoucherService
	receiving      *tradeapp.ReceivingWorkflow
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(voucherService *tradeapp.VoucherService, receiving *tradeapp.ReceivingWorkflow) *VoucherHandler {
	return &VoucherHandler{voucherService: voucherService, receiving: receiving}
}

// Create handles POST /vouchers
func (h *VoucherHandler) Create(c *gin.Context) {
	var req tradeapp.CreateVoucherRequest
	if !h.bindJSON(c, &req) {
		return
	}
	voucher, err := h.voucherService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// GetByID handles GET /vouchers/:id
func (h *VoucherHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	voucher, err := h.voucherService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// List handles GET /vouchers
func (h *VoucherHandler) List(c *gin.Context) {
	var q PartyQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := tradeapp.VoucherListFilter{
		Status:     q.Status,
		SupplierID: q.supplierID(),
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	vouchers, total, err := h.voucherService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, vouchers, total, page, pageSize)
}

// ReplaceLines handles PUT /vouchers/:id/lines
func (h *VoucherHandler) ReplaceLines(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReplaceLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	voucher, err := h.voucherService.ReplaceLines(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Submit handles POST /vouchers/:id/submit
func (h *VoucherHandler) Submit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	voucher, err := h.voucherService.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// MarkOrdered handles POST /vouchers/:id/order
func (h *VoucherHandler) MarkOrdered(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	voucher, err := h.voucherService.MarkOrdered(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Cancel handles POST /vouchers/:id/cancel
func (h *VoucherHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.CancelVoucherRequest
	if !h.bindJSON(c, &req) {
		return
	}
	voucher, err := h.voucherService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Receive handles POST /vouchers/:id/receive. Lines that could not be applied
// are reported as warnings and can be retried with the same call.
func (h *VoucherHandler) Receive(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.receiving.Receive(c.Request.Context(), id, operator(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarning(c, result, result.Warning)
}
