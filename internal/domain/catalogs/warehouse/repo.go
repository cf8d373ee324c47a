package warehouse

import (
	"tiendero/internal/domain"
)

// Repository defines storage operations for the warehouse catalog.
type Repository interface {
	domain.CatalogRepository[*Warehouse]
}
