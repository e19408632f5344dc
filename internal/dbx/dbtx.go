// Package dbx holds the small database plumbing the repositories share:
// DBTX, a query interface that both *sql.DB and *sql.Tx satisfy, and
// WithTx, a commit-or-rollback wrapper.
//
// Every ledger-affecting operation runs inside exactly one WithTx call, so
// either all of its writes commit or none of them do.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface repositories are written against. Passing a
// *sql.Tx scopes a repository to that transaction; passing the *sql.DB
// runs it in auto-commit mode.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn against it, and commits on success
// or rolls back on error. Panics roll back and are rethrown.
//
// A transfer, for example, performs its guarded balance updates and the
// journal insert through the tx handle:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := accountRepo(tx).UpdateTimeBalance(ctx, id, version, balance); err != nil {
//	        return err
//	    }
//	    return txRepo(tx).Create(ctx, record)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
