package product

import (
	"tiendero/internal/domain"
)

// Repository defines storage operations for the product catalog.
type Repository interface {
	domain.CatalogRepository[*Product]
}
