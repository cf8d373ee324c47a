package dto

import (
	"tiendero/internal/domain/catalogs/employee"
)

// EmployeeResponse represents an employee in API responses.
type EmployeeResponse struct {
	BaseResponse
	Code       string `json:"code"`
	Name       string `json:"name"`
	Position   string `json:"position,omitempty"`
	BaseSalary string `json:"baseSalary"`
	Active     bool   `json:"active"`
}

// FromEmployee creates response from domain employee.
func FromEmployee(e *employee.Employee) *EmployeeResponse {
	return &EmployeeResponse{
		BaseResponse: FromBaseEntity(e.BaseEntity),
		Code:         e.Code,
		Name:         e.Name,
		Position:     e.Position,
		BaseSalary:   e.BaseSalary.String(),
		Active:       e.Active,
	}
}

// CreateEmployeeRequest for creating employees.
// Code is optional; an EMP-prefixed code is generated when empty.
type CreateEmployeeRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name" binding:"required"`
	Position   string `json:"position"`
	BaseSalary string `json:"baseSalary" binding:"required"`
}

// ToEmployee converts to a domain employee.
func (r *CreateEmployeeRequest) ToEmployee() (*employee.Employee, error) {
	salary, err := ParseMoney("baseSalary", r.BaseSalary)
	if err != nil {
		return nil, err
	}
	return employee.New(r.Code, r.Name, r.Position, salary), nil
}

// UpdateEmployeeRequest for updating employees. Nil fields stay unchanged.
type UpdateEmployeeRequest struct {
	Name       *string `json:"name"`
	Position   *string `json:"position"`
	BaseSalary *string `json:"baseSalary"`
	Active     *bool   `json:"active"`
	Version    int     `json:"version" binding:"required,min=1"`
}

// Apply merges the update onto the existing employee.
func (r *UpdateEmployeeRequest) Apply(existing *employee.Employee) (*employee.Employee, error) {
	if r.Name != nil {
		existing.Name = *r.Name
	}
	if r.Position != nil {
		existing.Position = *r.Position
	}
	if r.BaseSalary != nil {
		salary, err := ParseMoney("baseSalary", *r.BaseSalary)
		if err != nil {
			return nil, err
		}
		existing.BaseSalary = salary
	}
	if r.Active != nil {
		existing.Active = *r.Active
	}
	existing.Version = r.Version
	return existing, nil
}
