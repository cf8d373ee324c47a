package employee

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// Repository defines storage operations for the employee catalog.
type Repository interface {
	domain.CatalogRepository[*Employee]

	// GetForUpdate returns the employee with a row lock.
	// The payroll engine locks each target employee before inserting its item
	// so two concurrent runs serialize per employee.
	GetForUpdate(ctx context.Context, employeeID id.ID) (*Employee, error)

	// ListActive returns active employees ordered by name.
	// Used to resolve the default payroll target set.
	ListActive(ctx context.Context) ([]*Employee, error)
}
