package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// passthroughTx runs the function directly; rollback semantics are covered by
// integration tests against a real database.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type levelKey struct {
	warehouseID id.ID
	productID   id.ID
}

type fakeRepo struct {
	levels    map[levelKey]*Level
	products  map[id.ID]productMeta
	movements []*Movement
}

// productMeta mirrors the catalog columns the real repository joins in.
type productMeta struct {
	name    string
	gramaje string
	unit    string
	price   types.MinorUnits
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		levels:   make(map[levelKey]*Level),
		products: make(map[id.ID]productMeta),
	}
}

func (r *fakeRepo) setProduct(productID id.ID, meta productMeta) {
	r.products[productID] = meta
}

func (r *fakeRepo) GetLevel(_ context.Context, warehouseID, productID id.ID) (*Level, error) {
	if level, ok := r.levels[levelKey{warehouseID, productID}]; ok {
		return level, nil
	}
	return &Level{WarehouseID: warehouseID, ProductID: productID}, nil
}

func (r *fakeRepo) GetLevelForUpdate(ctx context.Context, warehouseID, productID id.ID) (*Level, error) {
	return r.GetLevel(ctx, warehouseID, productID)
}

func (r *fakeRepo) UpsertLevel(_ context.Context, level *Level) error {
	r.levels[levelKey{level.WarehouseID, level.ProductID}] = level
	return nil
}

func (r *fakeRepo) InsertMovement(_ context.Context, movement *Movement) error {
	r.movements = append(r.movements, movement)
	return nil
}

func (r *fakeRepo) InsertMovements(_ context.Context, movements []*Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeRepo) ListLevels(_ context.Context, warehouseID id.ID) ([]*LevelInfo, error) {
	var out []*LevelInfo
	for _, level := range r.levels {
		if level.WarehouseID == warehouseID && !level.Quantity.IsZero() {
			meta := r.products[level.ProductID]
			out = append(out, &LevelInfo{
				Level:       *level,
				ProductName: meta.name,
				Gramaje:     meta.gramaje,
				Unit:        meta.unit,
				Price:       meta.price,
			})
		}
	}
	return out, nil
}

func (r *fakeRepo) ListMovements(_ context.Context, filter MovementFilter) ([]*Movement, error) {
	var out []*Movement
	for _, m := range r.movements {
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, passthroughTx{}), repo
}

func TestApplyMovementIn(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	movement, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Kind:        MovementIn,
		Quantity:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(0), movement.PreviousQty)
	assert.Equal(t, types.Quantity(10), movement.ResultingQty)
	assert.Len(t, repo.movements, 1)

	qty, err := svc.GetQuantity(ctx, warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), qty)
}

func TestApplyMovementOut(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementIn, Quantity: 10,
	})
	require.NoError(t, err)

	movement, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementOut, Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(6), movement.ResultingQty)
}

func TestApplyMovementOutInsufficient(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementIn, Quantity: 3,
	})
	require.NoError(t, err)

	_, err = svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementOut, Quantity: 5,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// The rejected movement must not appear in the journal.
	assert.Len(t, repo.movements, 1)

	qty, err := svc.GetQuantity(ctx, warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(3), qty)
}

func TestApplyMovementOutExactDrain(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementIn, Quantity: 5,
	})
	require.NoError(t, err)

	movement, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementOut, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), movement.ResultingQty)
}

func TestApplyMovementAdjust(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementIn, Quantity: 10,
	})
	require.NoError(t, err)

	// ADJUST sets an absolute target, both down and up.
	movement, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementAdjust, Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(10), movement.PreviousQty)
	assert.Equal(t, types.Quantity(4), movement.ResultingQty)

	movement, err = svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementAdjust, Quantity: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), movement.ResultingQty)
}

func TestApplyMovementValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input MovementInput
	}{
		{"missing warehouse", MovementInput{ProductID: id.New(), Kind: MovementIn, Quantity: 1}},
		{"missing product", MovementInput{WarehouseID: id.New(), Kind: MovementIn, Quantity: 1}},
		{"unknown kind", MovementInput{WarehouseID: id.New(), ProductID: id.New(), Kind: "TRANSFER", Quantity: 1}},
		{"zero quantity in", MovementInput{WarehouseID: id.New(), ProductID: id.New(), Kind: MovementIn, Quantity: 0}},
		{"negative quantity out", MovementInput{WarehouseID: id.New(), ProductID: id.New(), Kind: MovementOut, Quantity: -2}},
		{"negative adjust target", MovementInput{WarehouseID: id.New(), ProductID: id.New(), Kind: MovementAdjust, Quantity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyMovement(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsAppError(err))
		})
	}
}

func TestAdjustToZeroAllowed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	movement, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: id.New(), ProductID: id.New(), Kind: MovementAdjust, Quantity: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), movement.ResultingQty)
}

func TestGetQuantityUnknownPairIsZero(t *testing.T) {
	svc, _ := newTestService()

	qty, err := svc.GetQuantity(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), qty)
}

func TestListLevelsIncludesProductInfo(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	repo.setProduct(productID, productMeta{
		name:    "Tortillas",
		gramaje: "1kg",
		unit:    "paquete",
		price:   2500,
	})

	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID, ProductID: productID, Kind: MovementIn, Quantity: 12,
	})
	require.NoError(t, err)

	levels, err := svc.ListLevels(ctx, warehouseID)
	require.NoError(t, err)
	require.Len(t, levels, 1)

	info := levels[0]
	assert.Equal(t, productID, info.ProductID)
	assert.Equal(t, types.Quantity(12), info.Quantity)
	assert.Equal(t, "Tortillas", info.ProductName)
	assert.Equal(t, "1kg", info.Gramaje)
	assert.Equal(t, "paquete", info.Unit)
	assert.Equal(t, types.MinorUnits(2500), info.Price)
}

// TestJournalReplayMatchesLevel folds the whole journal from zero and checks
// it lands on the stored quantity. A rejected movement writes nothing, so it
// must not disturb the replay either.
func TestJournalReplayMatchesLevel(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	apply := func(kind MovementKind, qty types.Quantity) error {
		_, err := svc.ApplyMovement(ctx, MovementInput{
			WarehouseID: warehouseID, ProductID: productID, Kind: kind, Quantity: qty,
		})
		return err
	}

	require.NoError(t, apply(MovementIn, 20))
	require.NoError(t, apply(MovementOut, 7))
	require.NoError(t, apply(MovementAdjust, 30))
	require.NoError(t, apply(MovementOut, 10))
	require.Error(t, apply(MovementOut, 100)) // insufficient, leaves no entry
	require.NoError(t, apply(MovementIn, 5))

	var replayed types.Quantity
	for _, m := range repo.movements {
		switch m.Kind {
		case MovementIn:
			replayed += m.Quantity
		case MovementOut:
			replayed -= m.Quantity
		case MovementAdjust:
			replayed = m.Quantity
		}
		assert.Equal(t, replayed, m.ResultingQty)
	}

	qty, err := svc.GetQuantity(ctx, warehouseID, productID)
	require.NoError(t, err)
	assert.Equal(t, qty, replayed)
	assert.Equal(t, types.Quantity(25), replayed)
	assert.Len(t, repo.movements, 5)
}

func TestMovementJournalFields(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	warehouseID, productID := id.New(), id.New()

	before := time.Now()
	_, err := svc.ApplyMovement(ctx, MovementInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Kind:        MovementIn,
		Quantity:    7,
		RefType:     "sale",
		RefID:       "abc",
		Note:        "restock",
	})
	require.NoError(t, err)

	m := repo.movements[0]
	assert.False(t, id.IsNil(m.ID))
	assert.Equal(t, "sale", m.RefType)
	assert.Equal(t, "abc", m.RefID)
	assert.Equal(t, "restock", m.Note)
	assert.Equal(t, "system", m.CreatedBy)
	assert.False(t, m.CreatedAt.Before(before))
}
