package employee

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain"
	"tiendero/pkg/numerator"
)

// Service provides business logic for the employee catalog.
type Service struct {
	*domain.CatalogService[*Employee]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new employee service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Employee]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "employee",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, item *Employee) error {
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("EMP"), time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}

// ListActive returns active employees ordered by name.
func (s *Service) ListActive(ctx context.Context) ([]*Employee, error) {
	return s.repo.ListActive(ctx)
}

// GetForUpdate returns the employee with a row lock. Must run inside a
// transaction; payroll uses it to serialize concurrent runs per employee.
func (s *Service) GetForUpdate(ctx context.Context, employeeID id.ID) (*Employee, error) {
	return s.repo.GetForUpdate(ctx, employeeID)
}

// Deactivate removes an employee from future payroll runs.
func (s *Service) Deactivate(ctx context.Context, employeeID id.ID) error {
	item, err := s.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}

	item.Active = false
	return s.Update(ctx, item)
}
