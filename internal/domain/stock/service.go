package stock

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/pkg/logger"
)

// Service applies movements to the stock ledger.
//
// Every write goes through ApplyMovement so the non-negative invariant is
// enforced in exactly one place. Callers that already hold a transaction
// (sale posting, sale cancellation) join it via the nested-transaction
// support in tx.Manager.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// ApplyMovement validates, locks the level row, applies the movement and
// appends the journal entry, all in one transaction.
//
// IN adds, OUT subtracts, ADJUST sets the level to the given target.
// A movement that would leave the level negative is rejected with an
// insufficient-stock conflict and nothing is written.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (*Movement, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	var movement *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		movement, err = s.applyLocked(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock movement applied",
		"movement_id", movement.ID,
		"warehouse_id", movement.WarehouseID,
		"product_id", movement.ProductID,
		"kind", movement.Kind,
		"quantity", movement.Quantity.Int64(),
		"resulting_qty", movement.ResultingQty.Int64())

	return movement, nil
}

// applyLocked assumes a transaction is already on the context.
func (s *Service) applyLocked(ctx context.Context, input MovementInput) (*Movement, error) {
	level, err := s.repo.GetLevelForUpdate(ctx, input.WarehouseID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock stock level: %w", err)
	}

	previousQty := level.Quantity
	newQty, err := nextQuantity(previousQty, input)
	if err != nil {
		return nil, err
	}

	level.Quantity = newQty
	level.UpdatedAt = time.Now()
	if err := s.repo.UpsertLevel(ctx, level); err != nil {
		return nil, fmt.Errorf("upsert stock level: %w", err)
	}

	movement := &Movement{
		ID:           id.New(),
		WarehouseID:  input.WarehouseID,
		ProductID:    input.ProductID,
		Kind:         input.Kind,
		Quantity:     input.Quantity,
		PreviousQty:  previousQty,
		ResultingQty: newQty,
		RefType:      input.RefType,
		RefID:        input.RefID,
		Note:         input.Note,
		CreatedAt:    time.Now(),
		CreatedBy:    appctx.Actor(ctx),
	}
	if err := s.repo.InsertMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("insert stock movement: %w", err)
	}

	return movement, nil
}

// nextQuantity computes the level after the movement, enforcing non-negativity.
func nextQuantity(current types.Quantity, input MovementInput) (types.Quantity, error) {
	switch input.Kind {
	case MovementIn:
		return current + input.Quantity, nil
	case MovementOut:
		next := current - input.Quantity
		if next.IsNegative() {
			return 0, apperror.NewInsufficientStock(
				input.ProductID.String(), input.Quantity.Int64(), current.Int64())
		}
		return next, nil
	case MovementAdjust:
		return input.Quantity, nil
	}
	return 0, apperror.NewInvalidInput("unknown movement kind").
		WithDetail("value", string(input.Kind))
}

// GetQuantity returns the current on-hand quantity for the pair.
// Pairs with no history report zero.
func (s *Service) GetQuantity(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	level, err := s.repo.GetLevel(ctx, warehouseID, productID)
	if err != nil {
		return 0, fmt.Errorf("get stock level: %w", err)
	}
	return level.Quantity, nil
}

// ListLevels returns all non-zero levels in a warehouse, each joined with
// its product's catalog data.
func (s *Service) ListLevels(ctx context.Context, warehouseID id.ID) ([]*LevelInfo, error) {
	if id.IsNil(warehouseID) {
		return nil, apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	return s.repo.ListLevels(ctx, warehouseID)
}

// ListMovements returns movement history, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]*Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListMovements(ctx, filter)
}
