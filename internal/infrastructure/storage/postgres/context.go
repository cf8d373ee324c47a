package postgres

import (
	"context"
)

// QuerierProvider is implemented by TxManager and lets repositories pick the
// active transaction from the context, or fall back to the pool.
//
// Repositories receive it by constructor injection; domain code depends only
// on internal/core/tx.Manager.
type QuerierProvider interface {
	GetQuerier(ctx context.Context) Querier
}

var _ QuerierProvider = (*TxManager)(nil)
