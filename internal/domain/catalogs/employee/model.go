// Package employee provides the employee catalog.
package employee

import (
	"context"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/types"
)

// Employee represents a staff member. Payroll pays the base salary and
// auto-deducts open debts; debts reference employees by id.
type Employee struct {
	entity.Catalog

	// Position is the job title (informational)
	Position string `db:"position" json:"position,omitempty"`

	// BaseSalary is the default gross pay per payroll period, in minor units
	BaseSalary types.MinorUnits `db:"base_salary" json:"baseSalary"`

	// Active controls whether the employee is included in payroll runs
	Active bool `db:"active" json:"active"`
}

// New creates a new active Employee.
func New(code, name, position string, baseSalary types.MinorUnits) *Employee {
	return &Employee{
		Catalog:    entity.NewCatalog(code, name),
		Position:   position,
		BaseSalary: baseSalary,
		Active:     true,
	}
}

// Validate implements entity.Validatable.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Catalog.Validate(ctx); err != nil {
		return err
	}

	if e.BaseSalary.IsNegative() {
		return apperror.NewValidation("base salary cannot be negative").
			WithDetail("field", "baseSalary")
	}

	return nil
}

// Payable reports whether the employee can be included in a payroll run.
func (e *Employee) Payable() bool {
	return e.Active && !e.DeletionMark
}
