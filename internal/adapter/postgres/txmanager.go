package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxManager runs callbacks inside a transaction carried through the context.
// Nested calls open a second independent transaction; don't.
type TxManager struct {
	pool Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx executes fn within a Read Committed transaction. The transaction
// commits when fn returns nil and rolls back on error or panic.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// RunReadOnly executes fn within a read-only Repeatable Read transaction, so
// every query fn issues sees the same snapshot.
func (m *TxManager) RunReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
