// Package stock_repo provides the PostgreSQL implementation of the stock
// ledger repository.
package stock_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/stock"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "stock_movements"
	levelsTable    = "stock_levels"
	productsTable  = "cat_products"
)

var movementCols = []string{
	"id", "warehouse_id", "product_id", "kind", "quantity",
	"previous_qty", "resulting_qty", "ref_type", "ref_id", "note",
	"created_at", "created_by",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetLevel returns the current level without locking.
// Missing pairs report zero, they are created on first movement.
func (r *StockRepo) GetLevel(ctx context.Context, warehouseID, productID id.ID) (*stock.Level, error) {
	q := r.builder.Select(
		"warehouse_id", "product_id", "quantity", "updated_at",
	).From(levelsTable).
		Where(squirrel.Eq{
			"warehouse_id": warehouseID,
			"product_id":   productID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	level := &stock.Level{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return &stock.Level{
				WarehouseID: warehouseID,
				ProductID:   productID,
				Quantity:    0,
			}, nil
		}
		return nil, fmt.Errorf("get level: %w", err)
	}

	return level, nil
}

// GetLevelForUpdate returns the level with a pessimistic lock.
// Missing rows return a zero level; the row is then created by UpsertLevel
// while the caller still holds the transaction.
func (r *StockRepo) GetLevelForUpdate(ctx context.Context, warehouseID, productID id.ID) (*stock.Level, error) {
	sql := `
		SELECT warehouse_id, product_id, quantity, updated_at
		FROM stock_levels
		WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE
	`

	level := &stock.Level{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, level, sql, warehouseID, productID); err != nil {
		if pgxscan.NotFound(err) {
			return &stock.Level{
				WarehouseID: warehouseID,
				ProductID:   productID,
				Quantity:    0,
			}, nil
		}
		return nil, mapLockErr(err, "get level for update")
	}

	return level, nil
}

// UpsertLevel writes the new quantity: update first, insert when the row does
// not exist yet. Two transactions racing on the first insert for a pair hit
// the unique constraint; that surfaces as a retryable conflict.
func (r *StockRepo) UpsertLevel(ctx context.Context, level *stock.Level) error {
	querier := r.txManager.GetQuerier(ctx)

	updateQ := r.builder.Update(levelsTable).
		Set("quantity", level.Quantity).
		Set("updated_at", level.UpdatedAt).
		Where(squirrel.Eq{
			"warehouse_id": level.WarehouseID,
			"product_id":   level.ProductID,
		})

	sql, args, err := updateQ.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	insertQ := r.builder.Insert(levelsTable).
		Columns("warehouse_id", "product_id", "quantity", "updated_at").
		Values(level.WarehouseID, level.ProductID, level.Quantity, level.UpdatedAt)

	sql, args, err = insertQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("stock level created concurrently, retry the request").
				WithCause(err)
		}
		return fmt.Errorf("insert level: %w", err)
	}

	return nil
}

// InsertMovement appends one journal entry.
func (r *StockRepo) InsertMovement(ctx context.Context, m *stock.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementCols...).
		Values(
			m.ID, m.WarehouseID, m.ProductID, m.Kind, m.Quantity,
			m.PreviousQty, m.ResultingQty, m.RefType, m.RefID, m.Note,
			m.CreatedAt, m.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// InsertMovements appends journal entries in bulk.
// Fast path: COPY when inside a transaction.
func (r *StockRepo) InsertMovements(ctx context.Context, movements []*stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.WarehouseID, m.ProductID, m.Kind, m.Quantity,
				m.PreviousQty, m.ResultingQty, m.RefType, m.RefID, m.Note,
				m.CreatedAt, m.CreatedBy,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementCols, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	for _, m := range movements {
		if err := r.InsertMovement(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// ListLevels returns non-zero levels in a warehouse joined with the product
// catalog, so one query serves the whole listing.
func (r *StockRepo) ListLevels(ctx context.Context, warehouseID id.ID) ([]*stock.LevelInfo, error) {
	q := r.builder.Select(
		"l.warehouse_id", "l.product_id", "l.quantity", "l.updated_at",
		"p.name AS product_name", "p.gramaje", "p.unit", "p.price",
	).From(levelsTable+" l").
		Join(productsTable+" p ON p.id = l.product_id").
		Where(squirrel.Eq{"l.warehouse_id": warehouseID}).
		Where(squirrel.NotEq{"l.quantity": int64(0)}).
		OrderBy("p.name", "l.product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []*stock.LevelInfo
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels: %w", err)
	}

	return levels, nil
}

// ListMovements returns journal entries, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]*stock.Movement, error) {
	q := r.builder.Select(movementCols...).From(movementsTable)

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if !id.IsNil(filter.ProductID) {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.RefType != "" {
		q = q.Where(squirrel.Eq{"ref_type": filter.RefType})
	}
	if filter.RefID != "" {
		q = q.Where(squirrel.Eq{"ref_id": filter.RefID})
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

	var movements []*stock.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// mapLockErr converts a lock-wait timeout (PostgreSQL 55P03) into a
// retryable conflict. Other errors pass through wrapped.
func mapLockErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return apperror.NewLockTimeout(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ stock.Repository = (*StockRepo)(nil)
