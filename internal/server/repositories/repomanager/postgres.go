package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/migrations"
	"github.com/tauschring/kontor/internal/server/repositories/accounts"
	"github.com/tauschring/kontor/internal/server/repositories/paymentrequests"
	"github.com/tauschring/kontor/internal/server/repositories/transactions"
	"github.com/tauschring/kontor/internal/server/repositories/users"
)

type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresManager) Transactions(db dbx.DBTX) transactions.Repository {
	return transactions.NewPostgresRepository(db)
}

func (m *PostgresManager) PaymentRequests(db dbx.DBTX) paymentrequests.Repository {
	return paymentrequests.NewPostgresRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and applies
// everything that has not been applied yet.
func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
