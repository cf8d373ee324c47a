package debts

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/employee"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployees struct {
	byID map[id.ID]*employee.Employee
}

func (f *fakeEmployees) GetByID(_ context.Context, employeeID id.ID) (*employee.Employee, error) {
	emp, ok := f.byID[employeeID]
	if !ok {
		return nil, apperror.NewNotFound("employee", employeeID.String())
	}
	return emp, nil
}

type fakeDebtRepo struct {
	debts    map[id.ID]*Debt
	payments map[id.ID][]*Payment
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{
		debts:    make(map[id.ID]*Debt),
		payments: make(map[id.ID][]*Payment),
	}
}

func (r *fakeDebtRepo) Create(_ context.Context, debt *Debt) error {
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) GetByID(_ context.Context, debtID id.ID) (*Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok {
		return nil, apperror.NewNotFound("debt", debtID.String())
	}
	loaded := *debt
	loaded.Payments = r.payments[debtID]
	return &loaded, nil
}

func (r *fakeDebtRepo) GetForUpdate(_ context.Context, debtID id.ID) (*Debt, error) {
	debt, ok := r.debts[debtID]
	if !ok {
		return nil, apperror.NewNotFound("debt", debtID.String())
	}
	return debt, nil
}

func (r *fakeDebtRepo) Update(_ context.Context, debt *Debt) error {
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) InsertPayment(_ context.Context, payment *Payment) error {
	r.payments[payment.DebtID] = append(r.payments[payment.DebtID], payment)
	return nil
}

func (r *fakeDebtRepo) List(_ context.Context, filter ListFilter) ([]*Debt, error) {
	var out []*Debt
	for _, debt := range r.debts {
		if !id.IsNil(filter.EmployeeID) && debt.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && debt.Status != filter.Status {
			continue
		}
		out = append(out, debt)
	}
	return out, nil
}

func (r *fakeDebtRepo) ListOpenForUpdate(_ context.Context, employeeID id.ID) ([]*Debt, error) {
	var out []*Debt
	for _, debt := range r.debts {
		if debt.EmployeeID == employeeID && debt.Status == StatusOpen && debt.Balance.IsPositive() {
			out = append(out, debt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type debtFixture struct {
	svc        *Service
	repo       *fakeDebtRepo
	employeeID id.ID
}

func newDebtFixture() *debtFixture {
	repo := newFakeDebtRepo()
	emp := &employee.Employee{
		Catalog: entity.NewCatalog("EMP-001", "Maria Lopez"),
		Active:  true,
	}
	employees := &fakeEmployees{byID: map[id.ID]*employee.Employee{emp.ID: emp}}

	return &debtFixture{
		svc:        NewService(repo, employees, passthroughTx{}),
		repo:       repo,
		employeeID: emp.ID,
	}
}

func TestCreateDebt(t *testing.T) {
	f := newDebtFixture()

	debt, err := f.svc.Create(context.Background(), CreateInput{
		EmployeeID: f.employeeID,
		Type:       TypeAdvance,
		Amount:     50000,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, debt.Status)
	assert.Equal(t, types.MinorUnits(50000), debt.OriginalAmount)
	assert.Equal(t, types.MinorUnits(50000), debt.Balance)
}

func TestCreateDebtUnknownEmployee(t *testing.T) {
	f := newDebtFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{
		EmployeeID: id.New(),
		Type:       TypeLoan,
		Amount:     100,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateDebtValidation(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"no employee", CreateInput{Type: TypeAdvance, Amount: 100}},
		{"unknown type", CreateInput{EmployeeID: f.employeeID, Type: "GIFT", Amount: 100}},
		{"zero amount", CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: 0}},
		{"negative amount", CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsAppError(err))
		})
	}
}

func TestAddPaymentReducesBalance(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	debt, err := f.svc.Create(ctx, CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: 50000})
	require.NoError(t, err)

	updated, err := f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 20000, Method: MethodCash})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, updated.Status)
	assert.Equal(t, types.MinorUnits(30000), updated.Balance)
	assert.Equal(t, types.MinorUnits(50000), updated.OriginalAmount)
	assert.Len(t, updated.Payments, 1)
}

func TestAddPaymentExactBalanceClosesDebt(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	debt, err := f.svc.Create(ctx, CreateInput{EmployeeID: f.employeeID, Type: TypeLoan, Amount: 30000})
	require.NoError(t, err)

	updated, err := f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 30000, Method: MethodTransfer})
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, updated.Status)
	assert.Equal(t, types.MinorUnits(0), updated.Balance)
}

func TestAddPaymentOverpaymentRejected(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	debt, err := f.svc.Create(ctx, CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: 10000})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 10001, Method: MethodCash})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOverpayment, appErr.Code)

	// Balance untouched, no payment recorded.
	reloaded, err := f.svc.GetByID(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(10000), reloaded.Balance)
	assert.Empty(t, reloaded.Payments)
}

func TestAddPaymentOnClosedDebtRejected(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	debt, err := f.svc.Create(ctx, CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: 100})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 100, Method: MethodCash})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 1, Method: MethodCash})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDebtClosed, appErr.Code)
}

func TestAddPaymentUnknownDebt(t *testing.T) {
	f := newDebtFixture()

	_, err := f.svc.AddPayment(context.Background(), PaymentInput{
		DebtID: id.New(), Amount: 100, Method: MethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAddPaymentPayrollMethodAccepted(t *testing.T) {
	f := newDebtFixture()
	ctx := context.Background()

	debt, err := f.svc.Create(ctx, CreateInput{EmployeeID: f.employeeID, Type: TypeAdvance, Amount: 5000})
	require.NoError(t, err)

	updated, err := f.svc.AddPayment(ctx, PaymentInput{DebtID: debt.ID, Amount: 2000, Method: MethodPayroll})
	require.NoError(t, err)
	assert.Equal(t, MethodPayroll, updated.Payments[0].Method)
}
