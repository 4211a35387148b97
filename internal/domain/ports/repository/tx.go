package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a database transaction and hands the
// transaction handle to fn. Repositories accept that handle as their Tx
// argument and fall back to the pool when it is nil.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		if err := jobs.Create(ctx, tx, job); err != nil {
//			return err
//		}
//		return outbox.Enqueue(ctx, tx, msg)
//	})
//
// The concrete type of tx is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
