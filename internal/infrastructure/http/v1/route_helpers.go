// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// DeactivateHandler is an optional interface for catalogs whose items can be
// taken out of circulation without deleting them.
type DeactivateHandler interface {
	Deactivate(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// Reads are open to any authenticated user; mutations require one of
// writeRoles. If the handler also implements DeactivateHandler, the
// deactivate route is registered automatically.
//
// Usage:
//
//	repo := catalog_repo.NewProductRepo(cfg.TxManager)
//	service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
//	handler := handlers.NewProductHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/products"), handler, appctx.RoleAdmin, appctx.RoleManager)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeRoles ...string) {
	mutate := middleware.RequireRole(writeRoles...)

	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", mutate, handler.Create)
	group.PUT("/:id", mutate, handler.Update)
	group.DELETE("/:id", mutate, handler.Delete)
	group.POST("/:id/deletion-mark", mutate, handler.SetDeletionMark)

	if deactivator, ok := handler.(DeactivateHandler); ok {
		group.POST("/:id/deactivate", mutate, deactivator.Deactivate)
	}
}
