package handlers

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/stock"
	"tiendero/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock ledger endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ApplyMovement handles POST /stock/movements - manual movement posting.
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ApplyMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	warehouseID, err := id.Parse(req.WarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId"))
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("field", "productId"))
		return
	}

	movement, err := h.service.ApplyMovement(ctx, stock.MovementInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Kind:        stock.MovementKind(req.Kind),
		Quantity:    types.Quantity(req.Quantity),
		Note:        req.Note,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedJSON(c, dto.FromMovement(movement))
}

// GetQuantity handles GET /stock/levels/:warehouseId/:productId
func (h *StockHandler) GetQuantity(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id"))
		return
	}
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	qty, err := h.service.GetQuantity(ctx, warehouseID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.QuantityResponse{
		WarehouseID: warehouseID.String(),
		ProductID:   productID.String(),
		Quantity:    qty.Int64(),
	})
}

// ListLevels handles GET /stock/levels/:warehouseId
func (h *StockHandler) ListLevels(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id"))
		return
	}

	levels, err := h.service.ListLevels(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ItemsResponse{Items: dto.FromLevels(levels)})
}

// ListMovements handles GET /stock/movements - movement history.
func (h *StockHandler) ListMovements(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.MovementFilter{
		Kind:    stock.MovementKind(c.Query("kind")),
		RefType: c.Query("refType"),
		RefID:   c.Query("refId"),
		Limit:   h.ParseIntQuery(c, "limit", 100),
		Offset:  h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("warehouseId"); s != "" {
		warehouseID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id"))
			return
		}
		filter.WarehouseID = warehouseID
	}
	if s := c.Query("productId"); s != "" {
		productID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id"))
			return
		}
		filter.ProductID = productID
	}

	movements, err := h.service.ListMovements(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ItemsResponse{Items: dto.FromMovements(movements)})
}
