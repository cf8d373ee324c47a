package payroll

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/employee"
	"tiendero/internal/domain/debts"
	"tiendero/pkg/numerator"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqRow struct{ n *int64 }

func (r seqRow) Scan(dest ...any) error {
	*r.n++
	*(dest[0].(*int64)) = *r.n
	return nil
}

type fakeSequence struct{ n int64 }

func (q *fakeSequence) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return seqRow{n: &q.n}
}

type fakeDirectory struct {
	byID map[id.ID]*employee.Employee
}

func (d *fakeDirectory) GetForUpdate(_ context.Context, employeeID id.ID) (*employee.Employee, error) {
	emp, ok := d.byID[employeeID]
	if !ok {
		return nil, apperror.NewNotFound("employee", employeeID.String())
	}
	return emp, nil
}

func (d *fakeDirectory) ListActive(_ context.Context) ([]*employee.Employee, error) {
	var out []*employee.Employee
	for _, emp := range d.byID {
		if emp.Payable() {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeDebtRepo backs a real debts.Service so runs exercise the actual
// balance/close rules during allocation.
type fakeDebtRepo struct {
	debts    map[id.ID]*debts.Debt
	payments map[id.ID][]*debts.Payment
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{
		debts:    make(map[id.ID]*debts.Debt),
		payments: make(map[id.ID][]*debts.Payment),
	}
}

func (r *fakeDebtRepo) Create(_ context.Context, debt *debts.Debt) error {
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) GetByID(_ context.Context, debtID id.ID) (*debts.Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok {
		return nil, apperror.NewNotFound("debt", debtID.String())
	}
	loaded := *debt
	loaded.Payments = r.payments[debtID]
	return &loaded, nil
}

func (r *fakeDebtRepo) GetForUpdate(_ context.Context, debtID id.ID) (*debts.Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok {
		return nil, apperror.NewNotFound("debt", debtID.String())
	}
	return debt, nil
}

func (r *fakeDebtRepo) Update(_ context.Context, debt *debts.Debt) error {
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) InsertPayment(_ context.Context, payment *debts.Payment) error {
	r.payments[payment.DebtID] = append(r.payments[payment.DebtID], payment)
	return nil
}

func (r *fakeDebtRepo) List(_ context.Context, _ debts.ListFilter) ([]*debts.Debt, error) {
	return nil, nil
}

func (r *fakeDebtRepo) ListOpenForUpdate(_ context.Context, employeeID id.ID) ([]*debts.Debt, error) {
	var out []*debts.Debt
	for _, debt := range r.debts {
		if debt.EmployeeID == employeeID && debt.Status == debts.StatusOpen && debt.Balance.IsPositive() {
			out = append(out, debt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeRunRepo struct {
	runs       map[id.ID]*Run
	items      map[id.ID][]*Item
	deductions map[id.ID][]*Deduction
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{
		runs:       make(map[id.ID]*Run),
		items:      make(map[id.ID][]*Item),
		deductions: make(map[id.ID][]*Deduction),
	}
}

func (r *fakeRunRepo) InsertRun(_ context.Context, run *Run) error {
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) InsertItem(_ context.Context, item *Item) error {
	r.items[item.RunID] = append(r.items[item.RunID], item)
	return nil
}

func (r *fakeRunRepo) UpdateItem(_ context.Context, item *Item) error {
	for i, existing := range r.items[item.RunID] {
		if existing.ID == item.ID {
			r.items[item.RunID][i] = item
			return nil
		}
	}
	return apperror.NewNotFound("payroll item", item.ID.String())
}

func (r *fakeRunRepo) InsertDeductions(_ context.Context, deductions []*Deduction) error {
	for _, d := range deductions {
		r.deductions[d.ItemID] = append(r.deductions[d.ItemID], d)
	}
	return nil
}

func (r *fakeRunRepo) GetRun(_ context.Context, runID id.ID) (*Run, error) {
	run, ok := r.runs[runID]
	if !ok {
		return nil, apperror.NewNotFound("payroll run", runID.String())
	}
	loaded := *run
	for _, item := range r.items[runID] {
		withLines := *item
		withLines.DeductionLines = r.deductions[item.ID]
		loaded.Items = append(loaded.Items, &withLines)
	}
	return &loaded, nil
}

func (r *fakeRunRepo) ListRuns(_ context.Context, _ ListFilter) ([]*Run, error) {
	var out []*Run
	for _, run := range r.runs {
		out = append(out, run)
	}
	return out, nil
}

type payrollFixture struct {
	svc       *Service
	runRepo   *fakeRunRepo
	debtRepo  *fakeDebtRepo
	debtSvc   *debts.Service
	directory *fakeDirectory
}

func newPayrollFixture() *payrollFixture {
	runRepo := newFakeRunRepo()
	debtRepo := newFakeDebtRepo()
	directory := &fakeDirectory{byID: make(map[id.ID]*employee.Employee)}

	debtSvc := debts.NewService(debtRepo, lookupAdapter{directory}, passthroughTx{})

	return &payrollFixture{
		svc:       NewService(runRepo, directory, debtSvc, passthroughTx{}, numerator.New(&fakeSequence{})),
		runRepo:   runRepo,
		debtRepo:  debtRepo,
		debtSvc:   debtSvc,
		directory: directory,
	}
}

// lookupAdapter narrows the directory to the debts service's read interface.
type lookupAdapter struct{ d *fakeDirectory }

func (a lookupAdapter) GetByID(ctx context.Context, employeeID id.ID) (*employee.Employee, error) {
	return a.d.GetForUpdate(ctx, employeeID)
}

func (f *payrollFixture) addEmployee(name string, baseSalaryCents int64, active bool) *employee.Employee {
	emp := &employee.Employee{
		Catalog:    entity.NewCatalog("EMP-"+name, name),
		BaseSalary: types.MinorUnits(baseSalaryCents),
		Active:     active,
	}
	f.directory.byID[emp.ID] = emp
	return emp
}

// addDebt opens a debt and pins its creation time for deterministic ordering.
func (f *payrollFixture) addDebt(t *testing.T, employeeID id.ID, amountCents int64, createdAt time.Time) *debts.Debt {
	t.Helper()
	debt, err := f.debtSvc.Create(context.Background(), debts.CreateInput{
		EmployeeID: employeeID,
		Type:       debts.TypeAdvance,
		Amount:     types.MinorUnits(amountCents),
	})
	require.NoError(t, err)
	f.debtRepo.debts[debt.ID].CreatedAt = createdAt
	return debt
}

func testPeriod() (time.Time, time.Time) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 14)
}

func TestRunNoDebts(t *testing.T) {
	f := newPayrollFixture()
	emp := f.addEmployee("Maria Lopez", 650000, true)
	from, to := testPeriod()

	run, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets:    []Target{{EmployeeID: emp.ID, Gross: 650000}},
	})
	require.NoError(t, err)

	assert.Contains(t, run.Number, "NOM-")
	require.Len(t, run.Items, 1)
	item := run.Items[0]
	assert.Equal(t, types.MinorUnits(650000), item.Gross)
	assert.Equal(t, types.MinorUnits(0), item.Deductions)
	assert.Equal(t, types.MinorUnits(650000), item.Net)
	assert.Empty(t, item.DeductionLines)
}

func TestRunAllocatesOldestDebtFirst(t *testing.T) {
	f := newPayrollFixture()
	emp := f.addEmployee("Jorge Ramirez", 600000, true)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	older := f.addDebt(t, emp.ID, 40000, base)
	newer := f.addDebt(t, emp.ID, 50000, base.AddDate(0, 0, 10))

	from, to := testPeriod()
	run, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets:    []Target{{EmployeeID: emp.ID, Gross: 600000}},
	})
	require.NoError(t, err)

	require.Len(t, run.Items, 1)
	item := run.Items[0]
	assert.Equal(t, types.MinorUnits(90000), item.Deductions)
	assert.Equal(t, types.MinorUnits(510000), item.Net)

	require.Len(t, item.DeductionLines, 2)
	assert.Equal(t, older.ID, item.DeductionLines[0].DebtID)
	assert.Equal(t, types.MinorUnits(40000), item.DeductionLines[0].Amount)
	assert.Equal(t, newer.ID, item.DeductionLines[1].DebtID)
	assert.Equal(t, types.MinorUnits(50000), item.DeductionLines[1].Amount)

	// Both debts fully paid and closed through the ledger.
	olderReloaded, err := f.debtSvc.GetByID(context.Background(), older.ID)
	require.NoError(t, err)
	assert.Equal(t, debts.StatusClosed, olderReloaded.Status)
	assert.Equal(t, debts.MethodPayroll, olderReloaded.Payments[0].Method)

	// Deduction line and ledger payment carry the same run reference.
	assert.Equal(t, "payroll run "+run.Number, item.DeductionLines[0].Note)
	assert.Equal(t, item.DeductionLines[0].Note, olderReloaded.Payments[0].Note)
}

func TestRunGrossSmallerThanDebts(t *testing.T) {
	f := newPayrollFixture()
	emp := f.addEmployee("Ana Torres", 30000, true)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	first := f.addDebt(t, emp.ID, 20000, base)
	second := f.addDebt(t, emp.ID, 50000, base.AddDate(0, 0, 1))

	from, to := testPeriod()
	run, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets:    []Target{{EmployeeID: emp.ID, Gross: 30000}},
	})
	require.NoError(t, err)

	item := run.Items[0]
	assert.Equal(t, types.MinorUnits(30000), item.Deductions)
	assert.Equal(t, types.MinorUnits(0), item.Net)

	// Oldest cleared in full, the rest capped by remaining gross.
	require.Len(t, item.DeductionLines, 2)
	assert.Equal(t, first.ID, item.DeductionLines[0].DebtID)
	assert.Equal(t, types.MinorUnits(20000), item.DeductionLines[0].Amount)
	assert.Equal(t, second.ID, item.DeductionLines[1].DebtID)
	assert.Equal(t, types.MinorUnits(10000), item.DeductionLines[1].Amount)

	secondReloaded, err := f.debtSvc.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, debts.StatusOpen, secondReloaded.Status)
	assert.Equal(t, types.MinorUnits(40000), secondReloaded.Balance)
}

func TestRunZeroGrossSkipsAllocation(t *testing.T) {
	f := newPayrollFixture()
	emp := f.addEmployee("Luis Cruz", 0, true)
	f.addDebt(t, emp.ID, 10000, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	from, to := testPeriod()
	run, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets:    []Target{{EmployeeID: emp.ID, Gross: 0}},
	})
	require.NoError(t, err)

	item := run.Items[0]
	assert.Equal(t, types.MinorUnits(0), item.Deductions)
	assert.Equal(t, types.MinorUnits(0), item.Net)
	assert.Empty(t, item.DeductionLines)
}

func TestRunDefaultsToActiveEmployees(t *testing.T) {
	f := newPayrollFixture()
	f.addEmployee("Beatriz", 100000, true)
	f.addEmployee("Carlos", 200000, true)
	f.addEmployee("Inactivo", 300000, false)

	from, to := testPeriod()
	run, err := f.svc.Run(context.Background(), RunInput{PeriodFrom: from, PeriodTo: to})
	require.NoError(t, err)

	require.Len(t, run.Items, 2)
	// Ordered by name, at base salary.
	assert.Equal(t, "Beatriz", run.Items[0].EmployeeName)
	assert.Equal(t, types.MinorUnits(100000), run.Items[0].Gross)
	assert.Equal(t, "Carlos", run.Items[1].EmployeeName)
	assert.Equal(t, types.MinorUnits(200000), run.Items[1].Gross)
}

func TestRunInactiveTargetAborts(t *testing.T) {
	f := newPayrollFixture()
	active := f.addEmployee("Activa", 100000, true)
	inactive := f.addEmployee("Inactivo", 100000, false)

	from, to := testPeriod()
	_, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets: []Target{
			{EmployeeID: active.ID, Gross: 100000},
			{EmployeeID: inactive.ID, Gross: 100000},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestRunUnknownTargetAborts(t *testing.T) {
	f := newPayrollFixture()
	from, to := testPeriod()

	_, err := f.svc.Run(context.Background(), RunInput{
		PeriodFrom: from,
		PeriodTo:   to,
		Targets:    []Target{{EmployeeID: id.New(), Gross: 100000}},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestRunValidation(t *testing.T) {
	f := newPayrollFixture()
	ctx := context.Background()
	from, to := testPeriod()

	tests := []struct {
		name  string
		input RunInput
	}{
		{"missing period", RunInput{}},
		{"inverted period", RunInput{PeriodFrom: to, PeriodTo: from}},
		{"negative gross", RunInput{PeriodFrom: from, PeriodTo: to, Targets: []Target{{EmployeeID: id.New(), Gross: -1}}}},
		{"nil employee", RunInput{PeriodFrom: from, PeriodTo: to, Targets: []Target{{Gross: 100}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Run(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsAppError(err))
		})
	}
}
