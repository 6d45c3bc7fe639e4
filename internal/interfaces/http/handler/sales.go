package handler

import (
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// SalesHandler serves point-of-sale checkouts
type SalesHandler struct {
	BaseHandler
	sales *tradeapp.SaleWorkflow
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(sales *tradeapp.SaleWorkflow) *SalesHandler {
	return &SalesHandler{sales: sales}
}

// Complete handles POST /sales. The order is committed before stock is
// decremented, so decrement failures come back as warnings on a 201.
func (h *SalesHandler) Complete(c *gin.Context) {
	var cmd tradeapp.CompleteSaleCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	cmd.CreatedBy = operator(c)

	result, err := h.sales.Complete(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Warning != nil {
		h.SuccessWithWarning(c, result, result.Warning)
		return
	}
	h.Created(c, result)
}

// GetByID handles GET /sales/:id
func (h *SalesHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.sales.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
