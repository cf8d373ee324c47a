package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/catalogs/employee"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// EmployeeHandler handles employee catalog endpoints.
type EmployeeHandler struct {
	*CatalogHandler[*employee.Employee, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest]
	service *employee.Service
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(base *BaseHandler, service *employee.Service) *EmployeeHandler {
	return &EmployeeHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*employee.Employee, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest]{
			Service:    service.CatalogService,
			EntityName: "employee",
			MapCreateDTO: func(req dto.CreateEmployeeRequest) (*employee.Employee, error) {
				return req.ToEmployee()
			},
			MapUpdateDTO: func(req dto.UpdateEmployeeRequest, existing *employee.Employee) (*employee.Employee, error) {
				return req.Apply(existing)
			},
			MapToDTO: func(e *employee.Employee) any {
				return dto.FromEmployee(e)
			},
		}),
		service: service,
	}
}

// ListActive handles GET /catalog/employees/active
func (h *EmployeeHandler) ListActive(c *gin.Context) {
	items, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]any, len(items))
	for i, e := range items {
		out[i] = dto.FromEmployee(e)
	}
	h.OK(c, dto.ItemsResponse{Items: out})
}

// Deactivate handles POST /catalog/employees/:id/deactivate
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	employeeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), employeeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "employee deactivated")
}
