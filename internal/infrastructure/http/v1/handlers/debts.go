package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/debts"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// DebtsHandler handles debt ledger endpoints.
type DebtsHandler struct {
	*BaseHandler
	service *debts.Service
}

// NewDebtsHandler creates a new debts handler.
func NewDebtsHandler(base *BaseHandler, service *debts.Service) *DebtsHandler {
	return &DebtsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /debts
func (h *DebtsHandler) Create(c *gin.Context) {
	var req dto.CreateDebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	debt, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedJSON(c, dto.FromDebt(debt))
}

// Get handles GET /debts/:id
func (h *DebtsHandler) Get(c *gin.Context) {
	debtID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	debt, err := h.service.GetByID(c.Request.Context(), debtID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDebt(debt))
}

// List handles GET /debts
func (h *DebtsHandler) List(c *gin.Context) {
	filter := debts.ListFilter{
		Status: debts.Status(c.Query("status")),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("employeeId"); s != "" {
		employeeID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid employee id"))
			return
		}
		filter.EmployeeID = employeeID
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ItemsResponse{Items: dto.FromDebts(items)})
}

// AddPayment handles POST /debts/:id/payments
func (h *DebtsHandler) AddPayment(c *gin.Context) {
	debtID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.DebtPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(debtID)
	if err != nil {
		h.Error(c, err)
		return
	}

	debt, err := h.service.AddPayment(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDebt(debt))
}
