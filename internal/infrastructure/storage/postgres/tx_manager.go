package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mietwerk/pkg/logger"
)

// Querier abstracts pgx query execution so repositories work the same
// inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// TxManager manages database transactions over a single pool.
type TxManager struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewTxManager creates a transaction manager bound to the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{
		pool:   pool,
		tracer: otel.Tracer("mietwerk/postgres"),
	}
}

// GetQuerier returns the active transaction from the context, or the pool
// when no transaction is in progress.
func (tm *TxManager) GetQuerier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return tm.pool
}

// InTx reports whether the context carries an active transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

// RunInTransaction executes fn within a transaction. If the context already
// carries a transaction, fn runs in a savepoint so an inner failure does not
// doom the outer transaction.
func (tm *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tm.doNested(ctx, tx, fn)
	}
	return tm.doInTx(ctx, pgx.TxOptions{}, fn)
}

// ReadOnly executes fn within a read-only transaction.
func (tm *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	return tm.doInTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (tm *TxManager) doInTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	ctx, span := tm.tracer.Start(ctx, "postgres.tx",
		trace.WithAttributes(attribute.Bool("db.tx.read_only", opts.AccessMode == pgx.ReadOnly)))
	defer span.End()

	tx, err := tm.pool.BeginTx(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin tx: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error(ctx, "rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tx func failed")
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit tx: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (tm *TxManager) doNested(ctx context.Context, outer pgx.Tx, fn func(ctx context.Context) error) error {
	nested, err := outer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	nestedCtx := context.WithValue(ctx, txKey{}, nested)

	if err := fn(nestedCtx); err != nil {
		if rbErr := nested.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "savepoint rollback failed", "error", rbErr)
		}
		return err
	}

	if err := nested.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
