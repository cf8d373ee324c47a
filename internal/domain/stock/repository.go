package stock

import (
	"context"

	"tiendero/internal/core/id"
)

// Repository defines storage operations for the stock ledger.
type Repository interface {
	// GetLevel returns the current level without locking.
	// A pair with no row returns a zero-quantity level, not an error.
	GetLevel(ctx context.Context, warehouseID, productID id.ID) (*Level, error)

	// GetLevelForUpdate returns the level with a row lock, blocking
	// concurrent writers on the same pair. Missing rows return a
	// zero-quantity level; the lock is then taken on insert.
	GetLevelForUpdate(ctx context.Context, warehouseID, productID id.ID) (*Level, error)

	// UpsertLevel writes the new quantity for the pair.
	UpsertLevel(ctx context.Context, level *Level) error

	// InsertMovement appends one journal entry.
	InsertMovement(ctx context.Context, movement *Movement) error

	// InsertMovements appends journal entries in bulk (COPY).
	InsertMovements(ctx context.Context, movements []*Movement) error

	// ListLevels returns all non-zero levels in a warehouse, each joined
	// with its product's catalog data.
	ListLevels(ctx context.Context, warehouseID id.ID) ([]*LevelInfo, error)

	// ListMovements returns journal entries, newest first.
	ListMovements(ctx context.Context, filter MovementFilter) ([]*Movement, error)
}
