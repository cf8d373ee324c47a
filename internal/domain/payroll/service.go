package payroll

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/employee"
	"tiendero/internal/domain/debts"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// EmployeeDirectory resolves and locks payroll targets.
type EmployeeDirectory interface {
	// GetForUpdate locks the employee row for the duration of the run's
	// transaction so two concurrent runs serialize per employee.
	GetForUpdate(ctx context.Context, employeeID id.ID) (*employee.Employee, error)

	// ListActive returns active employees ordered by name.
	ListActive(ctx context.Context) ([]*employee.Employee, error)
}

// DebtAllocator is the slice of the debt ledger the run engine needs.
// AddPayment calls join the run's transaction, so the balance/status rule is
// applied exactly as for manual payments.
type DebtAllocator interface {
	ListOpenForUpdate(ctx context.Context, employeeID id.ID) ([]*debts.Debt, error)
	AddPayment(ctx context.Context, input debts.PaymentInput) (*debts.Debt, error)
}

// Service executes payroll runs.
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	debts     DebtAllocator
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new payroll service.
func NewService(repo Repository, employees EmployeeDirectory, debtSvc DebtAllocator, txManager tx.Manager, num *numerator.Service) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		debts:     debtSvc,
		txManager: txManager,
		numerator: num,
	}
}

// Run executes one payroll run as a single transaction: every employee's
// item and deductions are applied, or none are. A failure on any target
// (absent or inactive employee, storage error) aborts the whole run.
func (s *Service) Run(ctx context.Context, input RunInput) (*Run, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	var runID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("NOM"), time.Now())
		if err != nil {
			return fmt.Errorf("generate run number: %w", err)
		}

		run := &Run{
			BaseDocument: entity.NewBaseDocument(appctx.Actor(ctx)),
			Number:       number,
			PeriodFrom:   input.PeriodFrom,
			PeriodTo:     input.PeriodTo,
			Note:         input.Note,
		}
		if err := s.repo.InsertRun(ctx, run); err != nil {
			return fmt.Errorf("insert payroll run: %w", err)
		}
		runID = run.ID

		targets, err := s.resolveTargets(ctx, input.Targets)
		if err != nil {
			return err
		}

		for _, target := range targets {
			if err := s.payEmployee(ctx, run, target); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Read-back after commit so the caller sees exactly what was persisted.
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("read back payroll run: %w", err)
	}

	logger.Info(ctx, "payroll run completed",
		"run_id", run.ID,
		"number", run.Number,
		"items", len(run.Items))

	return run, nil
}

// resolveTargets expands an empty target list to every active employee at
// base salary, ordered by name. Explicit targets keep their input order.
func (s *Service) resolveTargets(ctx context.Context, explicit []Target) ([]Target, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	active, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	targets := make([]Target, 0, len(active))
	for _, emp := range active {
		targets = append(targets, Target{EmployeeID: emp.ID, Gross: emp.BaseSalary})
	}
	return targets, nil
}

// payEmployee locks the employee, inserts a provisional item, walks the open
// debts oldest-first, and finalizes deductions and net pay.
func (s *Service) payEmployee(ctx context.Context, run *Run, target Target) error {
	emp, err := s.employees.GetForUpdate(ctx, target.EmployeeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewInvalidInput("payroll target does not exist").
				WithDetail("employee_id", target.EmployeeID.String())
		}
		return fmt.Errorf("lock employee: %w", err)
	}
	if !emp.Payable() {
		return apperror.NewInvalidInput("payroll target is inactive").
			WithDetail("employee_id", target.EmployeeID.String())
	}

	item := &Item{
		ID:           id.New(),
		RunID:        run.ID,
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Gross:        target.Gross,
		Deductions:   0,
		Net:          target.Gross,
	}
	if err := s.repo.InsertItem(ctx, item); err != nil {
		return fmt.Errorf("insert payroll item: %w", err)
	}

	deductions, err := s.allocateDebts(ctx, run, item)
	if err != nil {
		return err
	}

	if len(deductions) > 0 {
		if err := s.repo.InsertDeductions(ctx, deductions); err != nil {
			return fmt.Errorf("insert payroll deductions: %w", err)
		}
	}

	var total types.MinorUnits
	for _, d := range deductions {
		total += d.Amount
	}
	item.Deductions = total
	item.Net = target.Gross - total
	if item.Net.IsNegative() {
		item.Net = 0
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("update payroll item: %w", err)
	}
	return nil
}

// allocateDebts walks the employee's open debts oldest-first while gross pay
// remains, paying each debt min(balance, remaining) through the debt ledger.
func (s *Service) allocateDebts(ctx context.Context, run *Run, item *Item) ([]*Deduction, error) {
	open, err := s.debts.ListOpenForUpdate(ctx, item.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("lock open debts: %w", err)
	}

	remaining := item.Gross
	var deductions []*Deduction

	for _, debt := range open {
		if !remaining.IsPositive() {
			break
		}
		pay := types.MinMoney(debt.Balance, remaining)
		if !pay.IsPositive() {
			continue
		}

		// The same note goes on the payment and on the deduction line, so
		// both ledgers point back at the run.
		note := fmt.Sprintf("payroll run %s", run.Number)
		if _, err := s.debts.AddPayment(ctx, debts.PaymentInput{
			DebtID: debt.ID,
			Amount: pay,
			Method: debts.MethodPayroll,
			Note:   note,
		}); err != nil {
			return nil, err
		}

		deductions = append(deductions, &Deduction{
			ID:     id.New(),
			ItemID: item.ID,
			DebtID: debt.ID,
			Amount: pay,
			Note:   note,
		})
		remaining -= pay
	}

	return deductions, nil
}

// GetRun returns the run with items and deduction lines.
func (s *Service) GetRun(ctx context.Context, runID id.ID) (*Run, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("payroll run", runID.String())
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns run headers, newest first.
func (s *Service) ListRuns(ctx context.Context, filter ListFilter) ([]*Run, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListRuns(ctx, filter)
}
