package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/id"
	"tiendero/internal/domain/debts"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	debtsTable        = "doc_debts"
	debtPaymentsTable = "doc_debt_payments"
)

var debtPaymentCols = []string{
	"id", "debt_id", "amount", "method", "note", "created_at", "created_by",
}

// DebtRepo implements debts.Repository.
type DebtRepo struct {
	*BaseDocumentRepo[*debts.Debt]
}

// NewDebtRepo creates a new debt repository.
func NewDebtRepo(txManager *postgres.TxManager) *DebtRepo {
	return &DebtRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			debtsTable,
			postgres.ExtractDBColumns[debts.Debt](),
			func() *debts.Debt { return &debts.Debt{} },
		),
	}
}

// GetByID returns the debt with its payment history, oldest payment first.
func (r *DebtRepo) GetByID(ctx context.Context, debtID id.ID) (*debts.Debt, error) {
	debt, err := r.BaseDocumentRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(debtPaymentCols...).
		From(debtPaymentsTable).
		Where(squirrel.Eq{"debt_id": debtID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.Querier(ctx), &debt.Payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select debt payments: %w", err)
	}

	return debt, nil
}

// InsertPayment appends one payment record.
func (r *DebtRepo) InsertPayment(ctx context.Context, p *debts.Payment) error {
	q := r.Builder().
		Insert(debtPaymentsTable).
		Columns(debtPaymentCols...).
		Values(p.ID, p.DebtID, p.Amount, p.Method, p.Note, p.CreatedAt, p.CreatedBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert debt payment: %w", err)
	}
	return nil
}

// ListOpenForUpdate returns the employee's open debts with a positive balance,
// locked oldest first. All payroll runs walk debts in this one order, which
// keeps concurrent runs over the same employee deadlock-free.
func (r *DebtRepo) ListOpenForUpdate(ctx context.Context, employeeID id.ID) ([]*debts.Debt, error) {
	cols := postgres.ExtractDBColumns[debts.Debt]()
	q := r.Builder().
		Select(cols...).
		From(debtsTable).
		Where(squirrel.Eq{
			"employee_id": employeeID,
			"status":      debts.StatusOpen,
		}).
		Where(squirrel.Gt{"balance": int64(0)}).
		OrderBy("created_at ASC", "id ASC").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*debts.Debt
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, MapLockErr(err, "list open debts for update")
	}
	return items, nil
}

// List returns debt headers, newest first.
func (r *DebtRepo) List(ctx context.Context, filter debts.ListFilter) ([]*debts.Debt, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[debts.Debt]()...).
		From(debtsTable)

	if !id.IsNil(filter.EmployeeID) {
		q = q.Where(squirrel.Eq{"employee_id": filter.EmployeeID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*debts.Debt
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select debts: %w", err)
	}
	return items, nil
}

var _ debts.Repository = (*DebtRepo)(nil)
