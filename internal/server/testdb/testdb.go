// Package testdb builds in-memory sqlite databases mirroring the ledger
// schema, for repository and service tests. The repositories keep their
// SQL portable between the pgx and sqlite drivers, so the same code paths
// run in tests and in production.
package testdb

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/trust"

	_ "modernc.org/sqlite"
)

var dbSeq atomic.Int64

const schema = `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  user_code TEXT NOT NULL UNIQUE,
  email TEXT,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  is_system_admin INTEGER NOT NULL DEFAULT 0,
  trust_tier TEXT NOT NULL DEFAULT 'T1',
  total_time_earned INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);

CREATE TABLE accounts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users (id),
  type TEXT NOT NULL,
  balance_time INTEGER NOT NULL DEFAULT 0,
  balance_regio TEXT NOT NULL DEFAULT '0',
  version INTEGER NOT NULL DEFAULT 1,
  last_demurrage_calc TIMESTAMP NOT NULL,
  UNIQUE (user_id, type)
);

CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  sender_id TEXT NOT NULL REFERENCES users (id),
  receiver_id TEXT NOT NULL REFERENCES users (id),
  amount_time INTEGER NOT NULL DEFAULT 0,
  amount_regio TEXT NOT NULL DEFAULT '0',
  reference TEXT NOT NULL DEFAULT '',
  payment_request_id TEXT,
  is_system_fee INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL
);

CREATE TABLE payment_requests (
  id TEXT PRIMARY KEY,
  creditor_id TEXT NOT NULL REFERENCES users (id),
  debtor_id TEXT NOT NULL REFERENCES users (id),
  amount_time INTEGER NOT NULL DEFAULT 0,
  amount_regio TEXT NOT NULL DEFAULT '0',
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PENDING',
  transaction_id TEXT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
`

// New opens a fresh in-memory database with the ledger schema. A single
// pooled connection keeps every statement on the same memory instance.
func New(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("kontor_test_%d", dbSeq.Add(1))
	// _time_format makes the driver bind time.Time as a sortable string,
	// so ORDER BY created_at and >= comparisons behave like in Postgres.
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

// SeedUserOpts tweaks SeedUser. The zero value gives an active,
// non-administrative T1 member.
type SeedUserOpts struct {
	Tier            trust.Tier
	TotalTimeEarned int64
	IsSystemAdmin   bool
	Inactive        bool
}

// SeedUser inserts a user plus a zeroed TIME/REGIO account pair and
// returns the user.
func SeedUser(t *testing.T, db *sql.DB, userCode, firstName, lastName string, opts SeedUserOpts) *models.User {
	t.Helper()

	if opts.Tier == "" {
		opts.Tier = trust.TierT1
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:              uuid.New(),
		UserCode:        userCode,
		Email:           userCode + "@example.org",
		FirstName:       firstName,
		LastName:        lastName,
		IsActive:        !opts.Inactive,
		IsSystemAdmin:   opts.IsSystemAdmin,
		TrustTier:       opts.Tier,
		TotalTimeEarned: opts.TotalTimeEarned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := db.Exec(`INSERT INTO users (id, user_code, email, first_name, last_name, password_hash,
			is_active, is_system_admin, trust_tier, total_time_earned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.UserCode, user.Email, user.FirstName, user.LastName, "x",
		user.IsActive, user.IsSystemAdmin, user.TrustTier, user.TotalTimeEarned,
		user.CreatedAt, user.UpdatedAt)
	require.NoError(t, err)

	for _, currency := range []models.Currency{models.CurrencyTime, models.CurrencyRegio} {
		_, err = db.Exec(`INSERT INTO accounts (id, user_id, type, balance_time, balance_regio, version, last_demurrage_calc)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), user.ID, currency, int64(0), decimal.Zero, int64(1), now)
		require.NoError(t, err)
	}

	return user
}

// SetTimeBalance overwrites a user's TIME balance without touching the
// version counter.
func SetTimeBalance(t *testing.T, db *sql.DB, userID uuid.UUID, balance int64) {
	t.Helper()
	res, err := db.Exec(`UPDATE accounts SET balance_time = $1 WHERE user_id = $2 AND type = $3`,
		balance, userID, models.CurrencyTime)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

// SetRegioBalance overwrites a user's REGIO balance.
func SetRegioBalance(t *testing.T, db *sql.DB, userID uuid.UUID, balance decimal.Decimal) {
	t.Helper()
	res, err := db.Exec(`UPDATE accounts SET balance_regio = $1 WHERE user_id = $2 AND type = $3`,
		balance, userID, models.CurrencyRegio)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

// SetDemurrageCalc backdates the TIME account's demurrage evaluation
// stamp.
func SetDemurrageCalc(t *testing.T, db *sql.DB, userID uuid.UUID, calc time.Time) {
	t.Helper()
	res, err := db.Exec(`UPDATE accounts SET last_demurrage_calc = $1 WHERE user_id = $2 AND type = $3`,
		calc, userID, models.CurrencyTime)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

// DemurrageCalc reads the TIME account's demurrage evaluation stamp.
func DemurrageCalc(t *testing.T, db *sql.DB, userID uuid.UUID) time.Time {
	t.Helper()
	var calc time.Time
	err := db.QueryRow(`SELECT last_demurrage_calc FROM accounts WHERE user_id = $1 AND type = $2`,
		userID, models.CurrencyTime).Scan(&calc)
	require.NoError(t, err)
	return calc
}

// TimeBalance reads a user's TIME balance directly.
func TimeBalance(t *testing.T, db *sql.DB, userID uuid.UUID) int64 {
	t.Helper()
	var balance int64
	err := db.QueryRow(`SELECT balance_time FROM accounts WHERE user_id = $1 AND type = $2`,
		userID, models.CurrencyTime).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// RegioBalance reads a user's REGIO balance directly.
func RegioBalance(t *testing.T, db *sql.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance_regio FROM accounts WHERE user_id = $1 AND type = $2`,
		userID, models.CurrencyRegio).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// CountTransactions returns the size of the transaction log.
func CountTransactions(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n))
	return n
}
