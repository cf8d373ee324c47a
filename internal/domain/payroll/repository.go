package payroll

import (
	"context"

	"tiendero/internal/core/id"
)

// Repository defines storage operations for payroll runs.
type Repository interface {
	// InsertRun inserts the run header.
	InsertRun(ctx context.Context, run *Run) error

	// InsertItem inserts one provisional employee line.
	InsertItem(ctx context.Context, item *Item) error

	// UpdateItem writes the final deductions and net amounts.
	UpdateItem(ctx context.Context, item *Item) error

	// InsertDeductions appends one item's deduction lines in bulk (COPY).
	InsertDeductions(ctx context.Context, deductions []*Deduction) error

	// GetRun returns the run with items and deduction lines loaded.
	GetRun(ctx context.Context, runID id.ID) (*Run, error)

	// ListRuns returns run headers, newest first.
	ListRuns(ctx context.Context, filter ListFilter) ([]*Run, error)
}
