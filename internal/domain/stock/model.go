// Package stock implements the stock ledger: an append-only movement journal
// plus a derived per-(warehouse, product) quantity-on-hand that is never
// allowed to go negative.
package stock

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// MovementKind classifies a stock movement.
type MovementKind string

const (
	// MovementIn adds quantity to the level (purchases, returns, reversals).
	MovementIn MovementKind = "IN"
	// MovementOut removes quantity from the level (sales, spoilage).
	MovementOut MovementKind = "OUT"
	// MovementAdjust sets the level to an absolute target (physical count).
	MovementAdjust MovementKind = "ADJUST"
)

// Valid reports whether the kind is one of the known values.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

// Movement is one journal entry. Movements are immutable once written;
// corrections are new movements.
type Movement struct {
	ID          id.ID        `db:"id" json:"id"`
	WarehouseID id.ID        `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID        `db:"product_id" json:"productId"`
	Kind        MovementKind `db:"kind" json:"kind"`
	// Quantity is the movement input: units moved for IN/OUT,
	// the absolute target for ADJUST. Always non-negative.
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	// PreviousQty and ResultingQty bracket the level around this movement.
	PreviousQty  types.Quantity `db:"previous_qty" json:"previousQty"`
	ResultingQty types.Quantity `db:"resulting_qty" json:"resultingQty"`
	// RefType/RefID link the movement to the document that caused it
	// ("sale", "sale_cancel") or are empty for manual movements.
	RefType   string    `db:"ref_type" json:"refType,omitempty"`
	RefID     string    `db:"ref_id" json:"refId,omitempty"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

// Level is the derived quantity-on-hand for one (warehouse, product) pair.
// A missing row means zero.
type Level struct {
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// LevelInfo is a Level joined with the product's catalog data. Warehouse
// stock listings return it so clients do not need a second lookup per row.
type LevelInfo struct {
	Level

	ProductName string           `db:"product_name" json:"productName"`
	Gramaje     string           `db:"gramaje" json:"gramaje"`
	Unit        string           `db:"unit" json:"unit"`
	Price       types.MinorUnits `db:"price" json:"price"`
}

// MovementInput carries the parameters of one ApplyMovement call.
type MovementInput struct {
	WarehouseID id.ID
	ProductID   id.ID
	Kind        MovementKind
	Quantity    types.Quantity
	RefType     string
	RefID       string
	Note        string
}

// Validate checks the input before any row is touched.
func (in MovementInput) Validate(_ context.Context) error {
	if id.IsNil(in.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if !in.Kind.Valid() {
		return apperror.NewInvalidInput("unknown movement kind").
			WithDetail("field", "kind").
			WithDetail("value", string(in.Kind))
	}

	switch in.Kind {
	case MovementIn, MovementOut:
		if !in.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity").
				WithDetail("value", in.Quantity.Int64())
		}
	case MovementAdjust:
		if in.Quantity.IsNegative() {
			return apperror.NewValidation("adjust target cannot be negative").
				WithDetail("field", "quantity").
				WithDetail("value", in.Quantity.Int64())
		}
	}

	return nil
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	WarehouseID id.ID
	ProductID   id.ID
	Kind        MovementKind
	RefType     string
	RefID       string
	Limit       int
	Offset      int
}
