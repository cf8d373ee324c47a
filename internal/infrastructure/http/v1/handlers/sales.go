package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/sales"
	"tiendero/internal/infrastructure/http/v1/dto"
	"tiendero/internal/infrastructure/storage/postgres"
)

// SalesHandler handles sale lifecycle endpoints.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
	audit   *postgres.AuditService
}

// NewSalesHandler creates a new sales handler. audit may be nil.
func NewSalesHandler(base *BaseHandler, service *sales.Service, audit *postgres.AuditService) *SalesHandler {
	return &SalesHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// recordAudit writes a sale lifecycle event to the audit trail. Failures are
// swallowed: the business operation already committed.
func (h *SalesHandler) recordAudit(c *gin.Context, sale *sales.Sale, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "sale", sale.ID, action, changes)
}

// Create handles POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	sale, err := h.service.Create(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.recordAudit(c, sale, postgres.AuditActionCreate, map[string]any{
		"number": sale.Number,
		"total":  sale.Total.String(),
	})
	h.CreatedJSON(c, dto.FromSale(sale))
}

// Get handles GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(sale))
}

// List handles GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	filter := sales.ListFilter{
		Status: sales.Status(c.Query("status")),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("warehouseId"); s != "" {
		warehouseID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id"))
			return
		}
		filter.WarehouseID = warehouseID
	}
	if s := c.Query("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date, expected RFC3339"))
			return
		}
		filter.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date, expected RFC3339"))
			return
		}
		filter.To = to
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ItemsResponse{Items: dto.FromSales(items)})
}

// AddPayment handles POST /sales/:id/payments
func (h *SalesHandler) AddPayment(c *gin.Context) {
	h.applyPayment(c, postgres.AuditActionPayment, h.service.AddPayment)
}

// AddRefund handles POST /sales/:id/refunds
func (h *SalesHandler) AddRefund(c *gin.Context) {
	h.applyPayment(c, postgres.AuditActionRefund, h.service.AddRefund)
}

func (h *SalesHandler) applyPayment(c *gin.Context, action postgres.AuditAction, apply func(ctx context.Context, input sales.PaymentInput) (*sales.Sale, error)) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SalePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	sale, err := apply(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.recordAudit(c, sale, action, map[string]any{
		"amount": input.Amount.String(),
		"method": string(input.Method),
	})
	h.OK(c, dto.FromSale(sale))
}

// Cancel handles POST /sales/:id/cancel
func (h *SalesHandler) Cancel(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sale, err := h.service.Cancel(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.recordAudit(c, sale, postgres.AuditActionCancel, nil)
	h.OK(c, dto.FromSale(sale))
}
