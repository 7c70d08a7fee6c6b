package repository

import "context"

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories must accept a nil Tx and fall back to their own connection.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside a transaction and passes its handle as tx.
// fn returning an error rolls the transaction back.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
