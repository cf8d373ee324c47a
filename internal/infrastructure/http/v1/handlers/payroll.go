package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/payroll"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// PayrollHandler handles payroll run endpoints.
type PayrollHandler struct {
	*BaseHandler
	service *payroll.Service
}

// NewPayrollHandler creates a new payroll handler.
func NewPayrollHandler(base *BaseHandler, service *payroll.Service) *PayrollHandler {
	return &PayrollHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Run handles POST /payroll/runs - executes one atomic payroll run.
func (h *PayrollHandler) Run(c *gin.Context) {
	var req dto.RunPayrollRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	run, err := h.service.Run(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedJSON(c, dto.FromPayrollRun(run))
}

// Get handles GET /payroll/runs/:id
func (h *PayrollHandler) Get(c *gin.Context) {
	runID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), runID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPayrollRun(run))
}

// List handles GET /payroll/runs
func (h *PayrollHandler) List(c *gin.Context) {
	filter := payroll.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
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

	items, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ItemsResponse{Items: dto.FromPayrollRuns(items)})
}
