package debts

import (
	"context"

	"tiendero/internal/core/id"
)

// Repository defines storage operations for the debt ledger.
type Repository interface {
	// Create inserts the debt row.
	Create(ctx context.Context, debt *Debt) error

	// GetByID returns the debt with payments loaded.
	GetByID(ctx context.Context, debtID id.ID) (*Debt, error)

	// GetForUpdate returns the debt with a row lock, payments not loaded.
	GetForUpdate(ctx context.Context, debtID id.ID) (*Debt, error)

	// Update writes balance and status with optimistic versioning.
	Update(ctx context.Context, debt *Debt) error

	// InsertPayment appends one payment record.
	InsertPayment(ctx context.Context, payment *Payment) error

	// ListOpenForUpdate returns the employee's OPEN debts with balance > 0,
	// locked, ordered by (created_at asc, id asc), oldest first. This fixed
	// order is what makes concurrent payroll runs deadlock-free.
	ListOpenForUpdate(ctx context.Context, employeeID id.ID) ([]*Debt, error)

	// List returns debts, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Debt, error)
}
