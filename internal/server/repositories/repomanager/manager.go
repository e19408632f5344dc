// Package repomanager hands out repositories bound to a DBTX, so services
// can use the same repository code on a plain connection or inside a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/repositories/accounts"
	"github.com/tauschring/kontor/internal/server/repositories/paymentrequests"
	"github.com/tauschring/kontor/internal/server/repositories/transactions"
	"github.com/tauschring/kontor/internal/server/repositories/users"
)

type Manager interface {
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	PaymentRequests(db dbx.DBTX) paymentrequests.Repository

	RunMigrations(ctx context.Context, db *sql.DB) error
}
