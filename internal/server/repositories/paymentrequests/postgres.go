package paymentrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.PaymentRequest) error {
	query := `INSERT INTO payment_requests (id, creditor_id, debtor_id, amount_time, amount_regio,
			description, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var transactionID uuid.NullUUID
	if req.TransactionID != nil {
		transactionID = uuid.NullUUID{UUID: *req.TransactionID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.CreditorID, req.DebtorID, req.AmountTime, req.AmountRegio,
		req.Description, req.Status, transactionID, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	query := `SELECT id, creditor_id, debtor_id, amount_time, amount_regio,
			description, status, transaction_id, created_at, updated_at
		FROM payment_requests WHERE id = $1`

	req := &models.PaymentRequest{}
	var transactionID uuid.NullUUID
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.CreditorID, &req.DebtorID, &req.AmountTime, &req.AmountRegio,
		&req.Description, &req.Status, &transactionID, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("select payment request: %w", err)
	}
	if transactionID.Valid {
		txID := transactionID.UUID
		req.TransactionID = &txID
	}
	return req, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, transactionID *uuid.UUID, updatedAt time.Time) error {
	query := `UPDATE payment_requests SET status = $1, transaction_id = $2, updated_at = $3 WHERE id = $4`

	var txID uuid.NullUUID
	if transactionID != nil {
		txID = uuid.NullUUID{UUID: *transactionID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, status, txID, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update payment request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

const joinedColumns = `p.id, p.creditor_id, p.debtor_id, p.amount_time, p.amount_regio,
			p.description, p.status, p.transaction_id, p.created_at, p.updated_at,
			c.user_code, c.first_name, c.last_name,
			d.user_code, d.first_name, d.last_name`

const joinedFrom = ` FROM payment_requests p
		JOIN users c ON c.id = p.creditor_id
		JOIN users d ON d.id = p.debtor_id`

func (r *PostgresRepository) ListPendingByDebtor(ctx context.Context, debtorID uuid.UUID) ([]*RowWithParties, error) {
	query := `SELECT ` + joinedColumns + joinedFrom + `
		WHERE p.debtor_id = $1 AND p.status = $2
		ORDER BY p.created_at DESC`
	return r.queryJoined(ctx, query, debtorID, models.RequestPending)
}

func (r *PostgresRepository) ListPendingByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*RowWithParties, error) {
	query := `SELECT ` + joinedColumns + joinedFrom + `
		WHERE p.creditor_id = $1 AND p.status = $2
		ORDER BY p.created_at DESC`
	return r.queryJoined(ctx, query, creditorID, models.RequestPending)
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]*RowWithParties, error) {
	query := `SELECT ` + joinedColumns + joinedFrom + `
		WHERE p.status = $1
		ORDER BY p.created_at DESC`
	return r.queryJoined(ctx, query, models.RequestPending)
}

func (r *PostgresRepository) CountPending(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM payment_requests WHERE status = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, models.RequestPending).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) queryJoined(ctx context.Context, query string, args ...any) ([]*RowWithParties, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select payment requests: %w", err)
	}
	defer rows.Close()

	var result []*RowWithParties
	for rows.Next() {
		row := &RowWithParties{}
		var transactionID uuid.NullUUID
		var creditorFirst, creditorLast, debtorFirst, debtorLast string
		err := rows.Scan(
			&row.Request.ID, &row.Request.CreditorID, &row.Request.DebtorID,
			&row.Request.AmountTime, &row.Request.AmountRegio,
			&row.Request.Description, &row.Request.Status, &transactionID,
			&row.Request.CreatedAt, &row.Request.UpdatedAt,
			&row.CreditorCode, &creditorFirst, &creditorLast,
			&row.DebtorCode, &debtorFirst, &debtorLast,
		)
		if err != nil {
			return nil, err
		}
		if transactionID.Valid {
			txID := transactionID.UUID
			row.Request.TransactionID = &txID
		}
		row.CreditorName = joinName(creditorFirst, creditorLast)
		row.DebtorName = joinName(debtorFirst, debtorLast)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func joinName(first, last string) string {
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}
