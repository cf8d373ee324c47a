package dto

import (
	"time"

	"tiendero/internal/domain/stock"
)

// ApplyMovementRequest posts one manual stock movement.
type ApplyMovementRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required,uuid"`
	ProductID   string `json:"productId" binding:"required,uuid"`
	Kind        string `json:"kind" binding:"required"`
	Quantity    int64  `json:"quantity"`
	Note        string `json:"note"`
}

// MovementResponse represents one journal entry.
type MovementResponse struct {
	ID           string    `json:"id"`
	WarehouseID  string    `json:"warehouseId"`
	ProductID    string    `json:"productId"`
	Kind         string    `json:"kind"`
	Quantity     int64     `json:"quantity"`
	PreviousQty  int64     `json:"previousQty"`
	ResultingQty int64     `json:"resultingQty"`
	RefType      string    `json:"refType,omitempty"`
	RefID        string    `json:"refId,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
}

// FromMovement creates response from domain movement.
func FromMovement(m *stock.Movement) *MovementResponse {
	return &MovementResponse{
		ID:           m.ID.String(),
		WarehouseID:  m.WarehouseID.String(),
		ProductID:    m.ProductID.String(),
		Kind:         string(m.Kind),
		Quantity:     m.Quantity.Int64(),
		PreviousQty:  m.PreviousQty.Int64(),
		ResultingQty: m.ResultingQty.Int64(),
		RefType:      m.RefType,
		RefID:        m.RefID,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
	}
}

// FromMovements maps a movement list.
func FromMovements(movements []*stock.Movement) []*MovementResponse {
	out := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = FromMovement(m)
	}
	return out
}

// LevelResponse represents quantity-on-hand for one (warehouse, product),
// with the product's catalog data inlined.
type LevelResponse struct {
	WarehouseID string    `json:"warehouseId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Gramaje     string    `json:"gramaje"`
	Unit        string    `json:"unit"`
	Price       string    `json:"price"`
	Quantity    int64     `json:"quantity"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromLevel creates response from domain level.
func FromLevel(l *stock.LevelInfo) *LevelResponse {
	return &LevelResponse{
		WarehouseID: l.WarehouseID.String(),
		ProductID:   l.ProductID.String(),
		ProductName: l.ProductName,
		Gramaje:     l.Gramaje,
		Unit:        l.Unit,
		Price:       l.Price.String(),
		Quantity:    l.Quantity.Int64(),
		UpdatedAt:   l.UpdatedAt,
	}
}

// FromLevels maps a level list.
func FromLevels(levels []*stock.LevelInfo) []*LevelResponse {
	out := make([]*LevelResponse, len(levels))
	for i, l := range levels {
		out[i] = FromLevel(l)
	}
	return out
}

// QuantityResponse is the answer to a quantity-on-hand query.
type QuantityResponse struct {
	WarehouseID string `json:"warehouseId"`
	ProductID   string `json:"productId"`
	Quantity    int64  `json:"quantity"`
}
