package debts

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain/catalogs/employee"
	"tiendero/pkg/logger"
)

// EmployeeLookup verifies debtors exist. Read-only.
type EmployeeLookup interface {
	GetByID(ctx context.Context, employeeID id.ID) (*employee.Employee, error)
}

// Service drives the debt ledger. The payroll engine reuses AddPayment for
// its automatic deductions, so the balance/status rule lives here only.
type Service struct {
	repo      Repository
	employees EmployeeLookup
	txManager tx.Manager
}

// NewService creates a new debts service.
func NewService(repo Repository, employees EmployeeLookup, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		txManager: txManager,
	}
}

// Create opens a new debt with balance = amount.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Debt, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	if _, err := s.employees.GetByID(ctx, input.EmployeeID); err != nil {
		return nil, err
	}

	debt := &Debt{
		BaseDocument:   entity.NewBaseDocument(appctx.Actor(ctx)),
		EmployeeID:     input.EmployeeID,
		Type:           input.Type,
		Note:           input.Note,
		OriginalAmount: input.Amount,
		Balance:        input.Amount,
		Status:         StatusOpen,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, debt); err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "debt created",
		"debt_id", debt.ID,
		"employee_id", debt.EmployeeID,
		"amount", debt.OriginalAmount.String())

	return debt, nil
}

// AddPayment decrements the balance under the debt row lock.
//
// Unlike sales, overpayment is rejected: a payment above the open balance is
// a conflict. The debt closes when the balance reaches zero.
func (s *Service) AddPayment(ctx context.Context, input PaymentInput) (*Debt, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		debt, err := s.repo.GetForUpdate(ctx, input.DebtID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("debt", input.DebtID.String())
			}
			return fmt.Errorf("lock debt: %w", err)
		}

		if debt.IsClosed() {
			return apperror.NewDebtClosed(debt.ID.String())
		}
		if input.Amount > debt.Balance {
			return apperror.NewOverpayment(debt.ID.String(),
				int64(input.Amount), int64(debt.Balance))
		}

		payment := &Payment{
			ID:        id.New(),
			DebtID:    debt.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Note:      input.Note,
			CreatedAt: time.Now().UTC(),
			CreatedBy: appctx.Actor(ctx),
		}
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert debt payment: %w", err)
		}

		debt.Balance -= input.Amount
		if !debt.Balance.IsPositive() {
			debt.Status = StatusClosed
		}
		debt.UpdatedBy = appctx.Actor(ctx)
		if err := s.repo.Update(ctx, debt); err != nil {
			return fmt.Errorf("update debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, input.DebtID)
}

// GetByID returns the debt with its payment history.
func (s *Service) GetByID(ctx context.Context, debtID id.ID) (*Debt, error) {
	debt, err := s.repo.GetByID(ctx, debtID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("debt", debtID.String())
		}
		return nil, err
	}
	return debt, nil
}

// List returns debts, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Debt, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// ListOpenForUpdate exposes the oldest-first locked debt walk to the payroll
// engine. Must be called inside an active transaction.
func (s *Service) ListOpenForUpdate(ctx context.Context, employeeID id.ID) ([]*Debt, error) {
	return s.repo.ListOpenForUpdate(ctx, employeeID)
}
