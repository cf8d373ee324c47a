package product

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain"
	"tiendero/pkg/numerator"
)

// Service provides business logic for the product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
		return nil
	}

	if exists, err := s.repo.ExistsByCode(ctx, item.Code); err == nil && exists {
		return apperror.NewDuplicate("product", "code", item.Code)
	}

	return nil
}

// Deactivate takes a product off sale without touching historical snapshots.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	item, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	item.Active = false
	return s.Update(ctx, item)
}
