package dto

import (
	"tiendero/internal/domain/catalogs/warehouse"
)

// WarehouseResponse represents a warehouse in API responses.
type WarehouseResponse struct {
	BaseResponse
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// FromWarehouse creates response from domain warehouse.
func FromWarehouse(w *warehouse.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		BaseResponse: FromBaseEntity(w.BaseEntity),
		Code:         w.Code,
		Name:         w.Name,
		Address:      w.Address,
	}
}

// CreateWarehouseRequest for creating warehouses.
// Code is optional; an ALM-prefixed code is generated when empty.
type CreateWarehouseRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// ToWarehouse converts to a domain warehouse.
func (r *CreateWarehouseRequest) ToWarehouse() *warehouse.Warehouse {
	w := warehouse.New(r.Code, r.Name)
	w.Address = r.Address
	return w
}

// UpdateWarehouseRequest for updating warehouses. Nil fields stay unchanged.
type UpdateWarehouseRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Version int     `json:"version" binding:"required,min=1"`
}

// Apply merges the update onto the existing warehouse.
func (r *UpdateWarehouseRequest) Apply(existing *warehouse.Warehouse) *warehouse.Warehouse {
	if r.Name != nil {
		existing.Name = *r.Name
	}
	if r.Address != nil {
		existing.Address = *r.Address
	}
	existing.Version = r.Version
	return existing
}
