package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/id"
	"tiendero/internal/domain/payroll"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	payrollRunsTable       = "doc_payroll_runs"
	payrollItemsTable      = "doc_payroll_items"
	payrollDeductionsTable = "doc_payroll_deductions"
)

var payrollItemCols = []string{
	"id", "run_id", "employee_id", "employee_name", "gross", "deductions", "net",
}

var payrollDeductionCols = []string{
	"id", "item_id", "debt_id", "amount", "note",
}

// PayrollRepo implements payroll.Repository.
type PayrollRepo struct {
	*BaseDocumentRepo[*payroll.Run]
}

// NewPayrollRepo creates a new payroll repository.
func NewPayrollRepo(txManager *postgres.TxManager) *PayrollRepo {
	return &PayrollRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			payrollRunsTable,
			postgres.ExtractDBColumns[payroll.Run](),
			func() *payroll.Run { return &payroll.Run{} },
		),
	}
}

// InsertRun inserts the run header.
func (r *PayrollRepo) InsertRun(ctx context.Context, run *payroll.Run) error {
	return r.Create(ctx, run)
}

// InsertItem inserts one provisional employee line.
func (r *PayrollRepo) InsertItem(ctx context.Context, item *payroll.Item) error {
	q := r.Builder().
		Insert(payrollItemsTable).
		Columns(payrollItemCols...).
		Values(item.ID, item.RunID, item.EmployeeID, item.EmployeeName,
			item.Gross, item.Deductions, item.Net)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payroll item: %w", err)
	}
	return nil
}

// UpdateItem writes the final deduction and net amounts.
func (r *PayrollRepo) UpdateItem(ctx context.Context, item *payroll.Item) error {
	q := r.Builder().
		Update(payrollItemsTable).
		Set("deductions", item.Deductions).
		Set("net", item.Net).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update payroll item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payroll item %s not found", item.ID)
	}
	return nil
}

// InsertDeductions appends one item's deduction lines.
// Fast path: COPY when inside a transaction (always the case during a run).
func (r *PayrollRepo) InsertDeductions(ctx context.Context, deductions []*payroll.Deduction) error {
	if len(deductions) == 0 {
		return nil
	}

	if tx := r.TxManager().GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.TxManager())
		rows := make([][]any, 0, len(deductions))
		for _, d := range deductions {
			rows = append(rows, []any{d.ID, d.ItemID, d.DebtID, d.Amount, d.Note})
		}
		if _, err := inserter.CopyFromSlice(ctx, payrollDeductionsTable, payrollDeductionCols, rows); err != nil {
			return fmt.Errorf("copy payroll deductions: %w", err)
		}
		return nil
	}

	q := r.Builder().Insert(payrollDeductionsTable).Columns(payrollDeductionCols...)
	for _, d := range deductions {
		q = q.Values(d.ID, d.ItemID, d.DebtID, d.Amount, d.Note)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payroll deductions: %w", err)
	}
	return nil
}

// GetRun returns the run with items and their deduction lines loaded.
func (r *PayrollRepo) GetRun(ctx context.Context, runID id.ID) (*payroll.Run, error) {
	run, err := r.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	itemsQ := r.Builder().
		Select(payrollItemCols...).
		From(payrollItemsTable).
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("employee_name", "id")

	sql, args, err := itemsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &run.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("select payroll items: %w", err)
	}

	if len(run.Items) == 0 {
		return run, nil
	}

	itemIDs := make([]id.ID, 0, len(run.Items))
	byItem := make(map[id.ID]*payroll.Item, len(run.Items))
	for _, item := range run.Items {
		itemIDs = append(itemIDs, item.ID)
		byItem[item.ID] = item
	}

	dedQ := r.Builder().
		Select(payrollDeductionCols...).
		From(payrollDeductionsTable).
		Where(squirrel.Eq{"item_id": itemIDs}).
		OrderBy("item_id", "id")

	sql, args, err = dedQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var deductions []*payroll.Deduction
	if err := pgxscan.Select(ctx, r.Querier(ctx), &deductions, sql, args...); err != nil {
		return nil, fmt.Errorf("select payroll deductions: %w", err)
	}
	for _, d := range deductions {
		if item, ok := byItem[d.ItemID]; ok {
			item.DeductionLines = append(item.DeductionLines, d)
		}
	}

	return run, nil
}

// ListRuns returns run headers, newest first.
func (r *PayrollRepo) ListRuns(ctx context.Context, filter payroll.ListFilter) ([]*payroll.Run, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[payroll.Run]()...).
		From(payrollRunsTable)

	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"period_from": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"period_to": filter.To})
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

	var runs []*payroll.Run
	if err := pgxscan.Select(ctx, r.Querier(ctx), &runs, sql, args...); err != nil {
		return nil, fmt.Errorf("select payroll runs: %w", err)
	}
	return runs, nil
}

var _ payroll.Repository = (*PayrollRepo)(nil)
