package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/trust"
)

// PostgresRepository implements Repository over a DBTX, so the same code
// runs against *sql.DB or inside a ledger transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, user_code, email, first_name, last_name, password_hash,
	is_active, is_system_admin, trust_tier, total_time_earned, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.UserCode, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.IsActive, &user.IsSystemAdmin,
		&user.TrustTier, &user.TotalTimeEarned, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, user_code, email, first_name, last_name, password_hash,
			is_active, is_system_admin, trust_tier, total_time_earned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserCode, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.IsActive, user.IsSystemAdmin,
		user.TrustTier, user.TotalTimeEarned, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByCode(ctx context.Context, userCode string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_code = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("select user by code: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateTrust(ctx context.Context, id uuid.UUID, totalTimeEarned int64, tier trust.Tier, updatedAt time.Time) error {
	query := `UPDATE users SET total_time_earned = $1, trust_tier = $2, updated_at = $3 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, totalTimeEarned, tier, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update trust: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trust rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateAdminFields(ctx context.Context, id uuid.UUID, tier *trust.Tier, isActive *bool, updatedAt time.Time) error {
	// Placeholders are assembled in ascending order; see the package note
	// in accounts/postgres.go.
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	n := 1

	if tier != nil {
		set = append(set, fmt.Sprintf("trust_tier = $%d", n))
		args = append(args, *tier)
		n++
	}
	if isActive != nil {
		set = append(set, fmt.Sprintf("is_active = $%d", n))
		args = append(args, *isActive)
		n++
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", n))
	args = append(args, updatedAt)
	n++

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(set, ", "), n)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update admin fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin fields rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListActiveMembers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE is_active = $1 AND is_system_admin = $2
		ORDER BY user_code`

	rows, err := r.db.QueryContext(ctx, query, true, false)
	if err != nil {
		return nil, fmt.Errorf("select active members: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM users WHERE is_active = $1`
	if err := r.db.QueryRowContext(ctx, query, true).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}
