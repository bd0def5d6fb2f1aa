package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	txcontext "switchboard/pkg/platform/tx"
)

// PgxTx runs reconciliation passes inside a real database transaction.
// The transaction travels in the context; every Postgres store picks
// it up through the same context key.
type PgxTx struct {
	pool *pgxpool.Pool
}

// NewPgxTx constructs the transactional boundary for Postgres stores.
func NewPgxTx(pool *pgxpool.Pool) *PgxTx {
	return &PgxTx{pool: pool}
}

func (t *PgxTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
