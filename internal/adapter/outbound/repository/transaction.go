package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionManager runs units of work inside one Postgres transaction.
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a transaction manager over pool.
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	return &TransactionManager{pool: pool}
}

// WithTransaction runs fn with the transaction carried on its context.
// Queries issued through GetQueryInterface with that context join it.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return tm.run(ctx, "", fn)
}

// WithAdvisoryLock is WithTransaction holding a transaction-scoped advisory
// lock on key. Workers starting at the same time serialize index creation on it.
func (tm *TransactionManager) WithAdvisoryLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if key == "" {
		return errors.New("advisory lock key is required")
	}
	return tm.run(ctx, key, fn)
}

func (tm *TransactionManager) run(ctx context.Context, lockKey string, fn func(context.Context) error) (err error) {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		// Rollback after a failed commit reports ErrTxClosed.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	if lockKey != "" {
		if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
			return fmt.Errorf("acquire advisory lock %q: %w", lockKey, err)
		}
	}

	if err = fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txContextKey struct{}

// QueryInterface is satisfied by both *pgxpool.Pool and pgx.Tx.
type QueryInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQueryInterface returns the transaction on ctx, falling back to pool.
func GetQueryInterface(ctx context.Context, pool *pgxpool.Pool) QueryInterface {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
