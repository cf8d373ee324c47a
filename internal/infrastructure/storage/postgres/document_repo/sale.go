package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/id"
	"tiendero/internal/domain/sales"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	salesTable        = "doc_sales"
	saleItemsTable    = "doc_sale_items"
	salePaymentsTable = "doc_sale_payments"
	saleRefundsTable  = "doc_sale_refunds"
)

var saleItemCols = []string{
	"id", "sale_id", "line_no", "product_id", "product_code", "product_name",
	"gramaje", "unit", "unit_price", "quantity", "line_total",
}

var salePaymentCols = []string{
	"id", "sale_id", "amount", "method", "note", "created_at", "created_by",
}

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sales.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesTable,
			postgres.ExtractDBColumns[sales.Sale](),
			func() *sales.Sale { return &sales.Sale{} },
		),
	}
}

// GetByID returns the sale with items, payments and refunds loaded.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sale, err := r.BaseDocumentRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if sale.Items, err = r.ListItems(ctx, saleID); err != nil {
		return nil, err
	}
	if sale.Payments, err = r.listPayments(ctx, saleID); err != nil {
		return nil, err
	}
	if sale.Refunds, err = r.listRefunds(ctx, saleID); err != nil {
		return nil, err
	}

	return sale, nil
}

// InsertItems appends the line snapshots.
// Fast path: COPY when inside a transaction (always the case on sale creation).
func (r *SaleRepo) InsertItems(ctx context.Context, items []*sales.Item) error {
	if len(items) == 0 {
		return nil
	}

	if tx := r.TxManager().GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.TxManager())
		rows := make([][]any, 0, len(items))
		for _, it := range items {
			rows = append(rows, []any{
				it.ID, it.SaleID, it.LineNo, it.ProductID, it.ProductCode, it.ProductName,
				it.Gramaje, it.Unit, it.UnitPrice, it.Quantity, it.LineTotal,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, saleItemsTable, saleItemCols, rows); err != nil {
			return fmt.Errorf("copy sale items: %w", err)
		}
		return nil
	}

	q := r.Builder().Insert(saleItemsTable).Columns(saleItemCols...)
	for _, it := range items {
		q = q.Values(
			it.ID, it.SaleID, it.LineNo, it.ProductID, it.ProductCode, it.ProductName,
			it.Gramaje, it.Unit, it.UnitPrice, it.Quantity, it.LineTotal,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}
	return nil
}

// ListItems returns the sale's lines in line order.
func (r *SaleRepo) ListItems(ctx context.Context, saleID id.ID) ([]*sales.Item, error) {
	q := r.Builder().
		Select(saleItemCols...).
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*sales.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale items: %w", err)
	}
	return items, nil
}

// InsertPayment appends one payment record.
func (r *SaleRepo) InsertPayment(ctx context.Context, p *sales.Payment) error {
	q := r.Builder().
		Insert(salePaymentsTable).
		Columns(salePaymentCols...).
		Values(p.ID, p.SaleID, p.Amount, p.Method, p.Note, p.CreatedAt, p.CreatedBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale payment: %w", err)
	}
	return nil
}

// InsertRefund appends one refund record.
func (r *SaleRepo) InsertRefund(ctx context.Context, ref *sales.Refund) error {
	q := r.Builder().
		Insert(saleRefundsTable).
		Columns(salePaymentCols...).
		Values(ref.ID, ref.SaleID, ref.Amount, ref.Method, ref.Note, ref.CreatedAt, ref.CreatedBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale refund: %w", err)
	}
	return nil
}

// List returns sale headers, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) ([]*sales.Sale, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[sales.Sale]()...).
		From(salesTable)

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(squirrel.Lt{"created_at": filter.To})
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

	var items []*sales.Sale
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	return items, nil
}

func (r *SaleRepo) listPayments(ctx context.Context, saleID id.ID) ([]*sales.Payment, error) {
	q := r.Builder().
		Select(salePaymentCols...).
		From(salePaymentsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*sales.Payment
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale payments: %w", err)
	}
	return items, nil
}

func (r *SaleRepo) listRefunds(ctx context.Context, saleID id.ID) ([]*sales.Refund, error) {
	q := r.Builder().
		Select(salePaymentCols...).
		From(saleRefundsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*sales.Refund
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale refunds: %w", err)
	}
	return items, nil
}

var _ sales.Repository = (*SaleRepo)(nil)
