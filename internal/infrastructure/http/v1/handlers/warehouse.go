package handlers

import (
	"tiendero/internal/domain/catalogs/warehouse"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// WarehouseHandler handles warehouse catalog endpoints.
type WarehouseHandler struct {
	*CatalogHandler[*warehouse.Warehouse, dto.CreateWarehouseRequest, dto.UpdateWarehouseRequest]
}

// NewWarehouseHandler creates a new warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service) *WarehouseHandler {
	return &WarehouseHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*warehouse.Warehouse, dto.CreateWarehouseRequest, dto.UpdateWarehouseRequest]{
			Service:    service.CatalogService,
			EntityName: "warehouse",
			MapCreateDTO: func(req dto.CreateWarehouseRequest) (*warehouse.Warehouse, error) {
				return req.ToWarehouse(), nil
			},
			MapUpdateDTO: func(req dto.UpdateWarehouseRequest, existing *warehouse.Warehouse) (*warehouse.Warehouse, error) {
				return req.Apply(existing), nil
			},
			MapToDTO: func(w *warehouse.Warehouse) any {
				return dto.FromWarehouse(w)
			},
		}),
	}
}
