package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

const rollbackTimeout = 5 * time.Second

// TxManager runs callbacks inside a pgx transaction; fn receives the pgx.Tx
// as its repository.Tx.
type TxManager struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxManager uses read committed unless another isolation level is given.
func NewTxManager(pool *pgxpool.Pool, iso ...pgx.TxIsoLevel) *TxManager {
	m := &TxManager{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
	if len(iso) > 0 {
		m.opts.IsoLevel = iso[0]
	}
	return m
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return storeErr("begin tx", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// the caller's ctx may already be done; the rollback must still reach the server
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		_ = tx.Rollback(rctx)
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return storeErr("commit tx", err)
	}
	committed = true
	return nil
}

// executor is satisfied by the pool, a pooled conn and an open tx.
type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func getExecutor(pool *pgxpool.Pool, tx repository.Tx) (executor, error) {
	if tx == nil {
		if pool == nil {
			return nil, domain.ErrInvalidExecContext
		}
		return pool, nil
	}
	if ex, ok := tx.(executor); ok {
		return ex, nil
	}
	return nil, domain.ErrInvalidExecContext
}
