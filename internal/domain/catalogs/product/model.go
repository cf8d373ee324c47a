// Package product provides the product catalog.
package product

import (
	"context"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/types"
)

// Product represents a sellable item.
//
// Sale lines snapshot name, gramaje, unit and price at sale time, so editing
// or deactivating a product never rewrites history.
type Product struct {
	entity.Catalog

	// Gramaje is the pack size label (e.g., "500g", "1kg")
	Gramaje string `db:"gramaje" json:"gramaje"`

	// Unit is the unit of sale (e.g., "pieza", "caja", "bolsa")
	Unit string `db:"unit" json:"unit"`

	// Price is the current unit price in minor units
	Price types.MinorUnits `db:"price" json:"price"`

	// Active controls whether the product can be sold
	Active bool `db:"active" json:"active"`
}

// New creates a new active Product.
func New(code, name, gramaje, unit string, price types.MinorUnits) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Gramaje: gramaje,
		Unit:    unit,
		Price:   price,
		Active:  true,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	return nil
}

// Sellable reports whether the product can appear on a new sale.
func (p *Product) Sellable() bool {
	return p.Active && !p.DeletionMark
}
