package dto

import (
	"tiendero/internal/domain/catalogs/product"
)

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	BaseResponse
	Code    string `json:"code"`
	Name    string `json:"name"`
	Gramaje string `json:"gramaje,omitempty"`
	Unit    string `json:"unit"`
	Price   string `json:"price"`
	Active  bool   `json:"active"`
}

// FromProduct creates response from domain product.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		BaseResponse: FromBaseEntity(p.BaseEntity),
		Code:         p.Code,
		Name:         p.Name,
		Gramaje:      p.Gramaje,
		Unit:         p.Unit,
		Price:        p.Price.String(),
		Active:       p.Active,
	}
}

// CreateProductRequest for creating products.
// Code is optional; a PRD-prefixed code is generated when empty.
type CreateProductRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Gramaje string `json:"gramaje"`
	Unit    string `json:"unit" binding:"required"`
	Price   string `json:"price" binding:"required"`
}

// ToProduct converts to a domain product.
func (r *CreateProductRequest) ToProduct() (*product.Product, error) {
	price, err := ParseMoney("price", r.Price)
	if err != nil {
		return nil, err
	}
	return product.New(r.Code, r.Name, r.Gramaje, r.Unit, price), nil
}

// UpdateProductRequest for updating products. Nil fields stay unchanged.
type UpdateProductRequest struct {
	Name    *string `json:"name"`
	Gramaje *string `json:"gramaje"`
	Unit    *string `json:"unit"`
	Price   *string `json:"price"`
	Active  *bool   `json:"active"`
	Version int     `json:"version" binding:"required,min=1"`
}

// Apply merges the update onto the existing product.
func (r *UpdateProductRequest) Apply(existing *product.Product) (*product.Product, error) {
	if r.Name != nil {
		existing.Name = *r.Name
	}
	if r.Gramaje != nil {
		existing.Gramaje = *r.Gramaje
	}
	if r.Unit != nil {
		existing.Unit = *r.Unit
	}
	if r.Price != nil {
		price, err := ParseMoney("price", *r.Price)
		if err != nil {
			return nil, err
		}
		existing.Price = price
	}
	if r.Active != nil {
		existing.Active = *r.Active
	}
	existing.Version = r.Version
	return existing, nil
}
