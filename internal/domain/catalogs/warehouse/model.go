// Package warehouse provides the warehouse catalog.
package warehouse

import (
	"context"

	"tiendero/internal/core/entity"
)

// Warehouse represents a stock location. Each warehouse holds its own stock
// levels; there is no transfer logic between warehouses.
type Warehouse struct {
	entity.Catalog

	// Address is the physical location (informational)
	Address string `db:"address" json:"address,omitempty"`
}

// New creates a new Warehouse.
func New(code, name string) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}
