package sales

import (
	"context"

	"tiendero/internal/core/id"
)

// Repository defines storage operations for sales.
type Repository interface {
	// Create inserts the sale header row.
	Create(ctx context.Context, sale *Sale) error

	// GetByID returns the sale with items, payments and refunds loaded.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate returns the sale header with a row lock, relations not
	// loaded. All lifecycle mutations start here.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// Update writes header totals and status with optimistic versioning.
	Update(ctx context.Context, sale *Sale) error

	// InsertItems appends the line snapshots in bulk (COPY).
	InsertItems(ctx context.Context, items []*Item) error

	// ListItems returns the sale's lines in line order.
	ListItems(ctx context.Context, saleID id.ID) ([]*Item, error)

	// InsertPayment appends one payment record.
	InsertPayment(ctx context.Context, payment *Payment) error

	// InsertRefund appends one refund record.
	InsertRefund(ctx context.Context, refund *Refund) error

	// List returns sale headers, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Sale, error)
}
