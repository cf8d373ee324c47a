package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/stock"
	"tiendero/pkg/numerator"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// seqRow feeds the numerator fake a monotonically increasing counter.
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

func newTestNumerator() *numerator.Service {
	return numerator.New(&fakeSequence{})
}

type fakeSaleRepo struct {
	sales    map[id.ID]*Sale
	items    map[id.ID][]*Item
	payments map[id.ID][]*Payment
	refunds  map[id.ID][]*Refund
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{
		sales:    make(map[id.ID]*Sale),
		items:    make(map[id.ID][]*Item),
		payments: make(map[id.ID][]*Payment),
		refunds:  make(map[id.ID][]*Refund),
	}
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *Sale) error {
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, saleID id.ID) (*Sale, error) {
	sale, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	loaded := *sale
	loaded.Items = r.items[saleID]
	loaded.Payments = r.payments[saleID]
	loaded.Refunds = r.refunds[saleID]
	return &loaded, nil
}

func (r *fakeSaleRepo) GetForUpdate(_ context.Context, saleID id.ID) (*Sale, error) {
	sale, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return sale, nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *Sale) error {
	// The real repository bumps the optimistic-locking version in SQL, so
	// the caller's in-memory copy goes stale until it re-reads.
	updated := *sale
	updated.Version++
	r.sales[sale.ID] = &updated
	return nil
}

func (r *fakeSaleRepo) InsertItems(_ context.Context, items []*Item) error {
	for _, item := range items {
		r.items[item.SaleID] = append(r.items[item.SaleID], item)
	}
	return nil
}

func (r *fakeSaleRepo) ListItems(_ context.Context, saleID id.ID) ([]*Item, error) {
	return r.items[saleID], nil
}

func (r *fakeSaleRepo) InsertPayment(_ context.Context, payment *Payment) error {
	r.payments[payment.SaleID] = append(r.payments[payment.SaleID], payment)
	return nil
}

func (r *fakeSaleRepo) InsertRefund(_ context.Context, refund *Refund) error {
	r.refunds[refund.SaleID] = append(r.refunds[refund.SaleID], refund)
	return nil
}

func (r *fakeSaleRepo) List(_ context.Context, _ ListFilter) ([]*Sale, error) {
	var out []*Sale
	for _, sale := range r.sales {
		out = append(out, sale)
	}
	return out, nil
}

type fakeProducts struct {
	byID map[id.ID]*product.Product
}

func (p *fakeProducts) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	prod, ok := p.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return prod, nil
}

// stockLevelRepo is the in-memory stock repository backing the real stock
// service, so sale tests exercise the actual fulfillment path.
type stockLevelKey struct {
	warehouseID id.ID
	productID   id.ID
}

type stockLevelRepo struct {
	levels    map[stockLevelKey]*stock.Level
	movements []*stock.Movement
}

func newStockLevelRepo() *stockLevelRepo {
	return &stockLevelRepo{levels: make(map[stockLevelKey]*stock.Level)}
}

func (r *stockLevelRepo) GetLevel(_ context.Context, warehouseID, productID id.ID) (*stock.Level, error) {
	if level, ok := r.levels[stockLevelKey{warehouseID, productID}]; ok {
		return level, nil
	}
	return &stock.Level{WarehouseID: warehouseID, ProductID: productID}, nil
}

func (r *stockLevelRepo) GetLevelForUpdate(ctx context.Context, warehouseID, productID id.ID) (*stock.Level, error) {
	return r.GetLevel(ctx, warehouseID, productID)
}

func (r *stockLevelRepo) UpsertLevel(_ context.Context, level *stock.Level) error {
	r.levels[stockLevelKey{level.WarehouseID, level.ProductID}] = level
	return nil
}

func (r *stockLevelRepo) InsertMovement(_ context.Context, movement *stock.Movement) error {
	r.movements = append(r.movements, movement)
	return nil
}

func (r *stockLevelRepo) InsertMovements(_ context.Context, movements []*stock.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *stockLevelRepo) ListLevels(_ context.Context, _ id.ID) ([]*stock.LevelInfo, error) {
	return nil, nil
}

func (r *stockLevelRepo) ListMovements(_ context.Context, _ stock.MovementFilter) ([]*stock.Movement, error) {
	return r.movements, nil
}

func (r *stockLevelRepo) quantity(warehouseID, productID id.ID) types.Quantity {
	if level, ok := r.levels[stockLevelKey{warehouseID, productID}]; ok {
		return level.Quantity
	}
	return 0
}

type saleFixture struct {
	svc         *Service
	repo        *fakeSaleRepo
	stockRepo   *stockLevelRepo
	products    *fakeProducts
	warehouseID id.ID
}

func newSaleFixture() *saleFixture {
	repo := newFakeSaleRepo()
	stockRepo := newStockLevelRepo()
	products := &fakeProducts{byID: make(map[id.ID]*product.Product)}
	stockSvc := stock.NewService(stockRepo, passthroughTx{})

	return &saleFixture{
		svc:         NewService(repo, products, stockSvc, passthroughTx{}, newTestNumerator()),
		repo:        repo,
		stockRepo:   stockRepo,
		products:    products,
		warehouseID: id.New(),
	}
}

// addProduct registers a sellable product and stocks the warehouse.
func (f *saleFixture) addProduct(priceCents int64, onHand int64) *product.Product {
	prod := &product.Product{
		Catalog: entity.NewCatalog(fmt.Sprintf("PRD-%05d", len(f.products.byID)+1), "Producto"),
		Unit:    "pza",
		Price:   types.MinorUnits(priceCents),
		Active:  true,
	}
	f.products.byID[prod.ID] = prod
	if onHand > 0 {
		f.stockRepo.levels[stockLevelKey{f.warehouseID, prod.ID}] = &stock.Level{
			WarehouseID: f.warehouseID,
			ProductID:   prod.ID,
			Quantity:    types.Quantity(onHand),
		}
	}
	return prod
}

func TestCreateSale(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()

	prodA := f.addProduct(2500, 10) // 25.00
	prodB := f.addProduct(1000, 10) // 10.00

	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items: []ItemInput{
			{ProductID: prodA.ID, Quantity: 2},
			{ProductID: prodB.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, sale.Status)
	assert.Equal(t, types.MinorUnits(8000), sale.Subtotal) // 2*25 + 3*10
	assert.Equal(t, types.MinorUnits(8000), sale.Total)
	assert.Contains(t, sale.Number, "VTA-")
	require.Len(t, sale.Items, 2)

	// Line snapshots carry product data and line numbers.
	assert.Equal(t, 1, sale.Items[0].LineNo)
	assert.Equal(t, prodA.Code, sale.Items[0].ProductCode)
	assert.Equal(t, types.MinorUnits(5000), sale.Items[0].LineTotal)

	// Stock was fulfilled per line.
	assert.Equal(t, types.Quantity(8), f.stockRepo.quantity(f.warehouseID, prodA.ID))
	assert.Equal(t, types.Quantity(7), f.stockRepo.quantity(f.warehouseID, prodB.ID))
}

func TestCreateSaleReturnsStoredVersion(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(2500, 10)

	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Insert then totals update: the stored row is at version 2 and the
	// returned sale must match it, not the pre-update copy.
	stored, err := f.repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Version, sale.Version)
	assert.Equal(t, 2, sale.Version)
}

func TestCreateSaleDiscount(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(5000, 5)

	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Discount:    1500,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(5000), sale.Subtotal)
	assert.Equal(t, types.MinorUnits(3500), sale.Total)
}

func TestCreateSaleDiscountAboveSubtotalClampsToZero(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(1000, 5)

	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Discount:    9999,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), sale.Total)
}

func TestCreateSaleUnitPriceOverride(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(5000, 5)

	override := types.MinorUnits(4200)
	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 2, UnitPrice: &override}},
	})
	require.NoError(t, err)
	assert.Equal(t, override, sale.Items[0].UnitPrice)
	assert.Equal(t, types.MinorUnits(8400), sale.Subtotal)
}

func TestCreateSaleInsufficientStockFailsAtLine(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()

	prodA := f.addProduct(2500, 10)
	prodB := f.addProduct(1000, 1) // not enough for the request

	_, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items: []ItemInput{
			{ProductID: prodA.ID, Quantity: 2},
			{ProductID: prodB.ID, Quantity: 5},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// The failing line stops fulfillment before any snapshot is written.
	for _, items := range f.repo.items {
		assert.Empty(t, items)
	}
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: id.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateSaleInactiveProduct(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()

	prod := f.addProduct(1000, 10)
	prod.Active = false

	_, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 1}},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestCreateSaleValidation(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(1000, 10)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"no warehouse", CreateInput{Items: []ItemInput{{ProductID: prod.ID, Quantity: 1}}}},
		{"no items", CreateInput{WarehouseID: f.warehouseID}},
		{"negative discount", CreateInput{WarehouseID: f.warehouseID, Discount: -1, Items: []ItemInput{{ProductID: prod.ID, Quantity: 1}}}},
		{"zero quantity", CreateInput{WarehouseID: f.warehouseID, Items: []ItemInput{{ProductID: prod.ID, Quantity: 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsAppError(err))
		})
	}
}

func createOpenSale(t *testing.T, f *saleFixture, totalCents int64) *Sale {
	t.Helper()
	prod := f.addProduct(totalCents, 100)
	sale, err := f.svc.Create(context.Background(), CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return sale
}

func TestAddPaymentPartialKeepsOpen(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)

	updated, err := f.svc.AddPayment(context.Background(), PaymentInput{
		SaleID: sale.ID, Amount: 4000, Method: MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, updated.Status)
	assert.Equal(t, types.MinorUnits(4000), updated.PaidTotal)
	assert.Len(t, updated.Payments, 1)
}

func TestAddPaymentCoversTotalFlipsToPaid(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 4000, Method: MethodCash})
	require.NoError(t, err)

	updated, err := f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 6000, Method: MethodCard})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, types.MinorUnits(10000), updated.PaidTotal)
}

func TestAddPaymentOverpaymentAccepted(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)

	updated, err := f.svc.AddPayment(context.Background(), PaymentInput{
		SaleID: sale.ID, Amount: 15000, Method: MethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, types.MinorUnits(15000), updated.PaidTotal)
}

func TestAddPaymentOnCancelledRejected(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 100, Method: MethodCash})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleCancelled, appErr.Code)
}

func TestAddRefundNeverChangesStatus(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 10000, Method: MethodCash})
	require.NoError(t, err)

	updated, err := f.svc.AddRefund(ctx, PaymentInput{SaleID: sale.ID, Amount: 10000, Method: MethodCash})
	require.NoError(t, err)

	// Full refund: status stays PAID, PaidTotal untouched, net goes to zero.
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, types.MinorUnits(10000), updated.PaidTotal)
	assert.Equal(t, types.MinorUnits(10000), updated.RefundedTotal)
	assert.Equal(t, types.MinorUnits(0), updated.NetPaid())
}

func TestAddRefundOnCancelledAllowed(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, sale.ID)
	require.NoError(t, err)

	updated, err := f.svc.AddRefund(ctx, PaymentInput{SaleID: sale.ID, Amount: 500, Method: MethodCash})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, types.MinorUnits(500), updated.RefundedTotal)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newSaleFixture()
	ctx := context.Background()
	prod := f.addProduct(2000, 10)

	sale, err := f.svc.Create(ctx, CreateInput{
		WarehouseID: f.warehouseID,
		Items:       []ItemInput{{ProductID: prod.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, types.Quantity(6), f.stockRepo.quantity(f.warehouseID, prod.ID))

	cancelled, err := f.svc.Cancel(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, types.Quantity(10), f.stockRepo.quantity(f.warehouseID, prod.ID))
}

func TestCancelWithPaymentsRejected(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 100, Method: MethodCash})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, sale.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleHasPayments, appErr.Code)
}

func TestCancelAfterFullRefundStillRejected(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	// Refunds do not reduce PaidTotal, so a paid sale stays uncancellable
	// even after a full refund.
	_, err := f.svc.AddPayment(ctx, PaymentInput{SaleID: sale.ID, Amount: 10000, Method: MethodCash})
	require.NoError(t, err)
	_, err = f.svc.AddRefund(ctx, PaymentInput{SaleID: sale.ID, Amount: 10000, Method: MethodCash})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, sale.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleHasPayments, appErr.Code)
}

func TestCancelTwiceRejected(t *testing.T) {
	f := newSaleFixture()
	sale := createOpenSale(t, f, 10000)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, sale.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleCancelled, appErr.Code)
}
