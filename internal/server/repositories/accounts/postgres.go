package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/models"
)

// PostgresRepository implements Repository over a DBTX.
//
// Queries keep their $n placeholders in ascending textual order and never
// reuse one, so positional binding agrees between the pgx driver and the
// sqlite driver used in tests.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, user_id, type, balance_time, balance_regio, version, last_demurrage_calc`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID, &account.UserID, &account.Type,
		&account.BalanceTime, &account.BalanceRegio,
		&account.Version, &account.LastDemurrageCalc,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) CreatePair(ctx context.Context, userID uuid.UUID, createdAt time.Time) error {
	query := `INSERT INTO accounts (id, user_id, type, balance_time, balance_regio, version, last_demurrage_calc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(), userID, models.CurrencyTime, int64(0), decimal.Zero, int64(1), createdAt)
	if err != nil {
		return fmt.Errorf("insert time account: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		uuid.New(), userID, models.CurrencyRegio, int64(0), decimal.Zero, int64(1), createdAt)
	if err != nil {
		return fmt.Errorf("insert regio account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID uuid.UUID, currency models.Currency) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND type = $2`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, userID, currency))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) UpdateTimeBalance(ctx context.Context, id uuid.UUID, expectedVersion int64, newBalance int64) error {
	query := `UPDATE accounts SET balance_time = $1, version = version + 1
		WHERE id = $2 AND version = $3`

	res, err := r.db.ExecContext(ctx, query, newBalance, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update time balance: %w", err)
	}
	return checkGuard(res)
}

func (r *PostgresRepository) UpdateRegioBalance(ctx context.Context, id uuid.UUID, expectedVersion int64, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance_regio = $1, version = version + 1
		WHERE id = $2 AND version = $3`

	res, err := r.db.ExecContext(ctx, query, newBalance, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update regio balance: %w", err)
	}
	return checkGuard(res)
}

// checkGuard maps a zero-row conditional update to ErrVersionConflict:
// somebody else committed against the version we read.
func checkGuard(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

func (r *PostgresRepository) TouchDemurrage(ctx context.Context, id uuid.UUID, calcTime time.Time) error {
	query := `UPDATE accounts SET last_demurrage_calc = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, calcTime, id)
	if err != nil {
		return fmt.Errorf("touch demurrage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch demurrage rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListTimeAccountsAbove(ctx context.Context, threshold int64) ([]*models.Account, error) {
	query := `SELECT a.id, a.user_id, a.type, a.balance_time, a.balance_regio, a.version, a.last_demurrage_calc
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.type = $1 AND a.balance_time > $2 AND u.is_system_admin = $3
		ORDER BY a.balance_time DESC`

	rows, err := r.db.QueryContext(ctx, query, models.CurrencyTime, threshold, false)
	if err != nil {
		return nil, fmt.Errorf("select hoarding accounts: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SumPositiveTime(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(balance_time), 0) FROM accounts WHERE type = $1 AND balance_time > $2`

	var sum int64
	if err := r.db.QueryRowContext(ctx, query, models.CurrencyTime, int64(0)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum positive time: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) SumPositiveRegio(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance_regio), 0) FROM accounts WHERE type = $1 AND balance_regio > $2`

	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, models.CurrencyRegio, decimal.Zero).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum positive regio: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) SumNetTime(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(balance_time), 0) FROM accounts WHERE type = $1`

	var sum int64
	if err := r.db.QueryRowContext(ctx, query, models.CurrencyTime).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum net time: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) SumNetRegio(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance_regio), 0) FROM accounts WHERE type = $1`

	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, models.CurrencyRegio).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum net regio: %w", err)
	}
	return sum, nil
}
