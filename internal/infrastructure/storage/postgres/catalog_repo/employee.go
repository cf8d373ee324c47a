package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/domain/catalogs/employee"
	"tiendero/internal/infrastructure/storage/postgres"
)

// EmployeeRepo implements employee.Repository.
type EmployeeRepo struct {
	*BaseCatalogRepo[*employee.Employee]
	txManager *postgres.TxManager
}

// NewEmployeeRepo creates a new employee repository.
func NewEmployeeRepo(txManager *postgres.TxManager) *EmployeeRepo {
	return &EmployeeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_employees",
			postgres.ExtractDBColumns[employee.Employee](),
			func() *employee.Employee { return &employee.Employee{} },
		),
		txManager: txManager,
	}
}

// ListActive returns active employees ordered by name, the default payroll
// target set.
func (r *EmployeeRepo) ListActive(ctx context.Context) ([]*employee.Employee, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[employee.Employee]()...).
		From("cat_employees").
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*employee.Employee
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	return items, nil
}

var _ employee.Repository = (*EmployeeRepo)(nil)
