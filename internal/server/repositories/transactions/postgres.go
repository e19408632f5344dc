package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `INSERT INTO transactions (id, sender_id, receiver_id, amount_time, amount_regio,
			reference, payment_request_id, is_system_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var requestID uuid.NullUUID
	if tx.PaymentRequestID != nil {
		requestID = uuid.NullUUID{UUID: *tx.PaymentRequestID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.SenderID, tx.ReceiverID, tx.AmountTime, tx.AmountRegio,
		tx.Reference, requestID, tx.IsSystemFee, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// The user id is bound twice rather than reusing one placeholder: sqlite
// assigns $n parameters indexes by order of appearance, and the tests run
// these queries under the sqlite driver.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter Filter, limit, offset int) ([]*RowWithParties, error) {
	query := `SELECT t.id, t.sender_id, t.receiver_id, t.amount_time, t.amount_regio,
			t.reference, t.payment_request_id, t.is_system_fee, t.created_at,
			s.user_code, s.first_name, s.last_name,
			v.user_code, v.first_name, v.last_name
		FROM transactions t
		JOIN users s ON s.id = t.sender_id
		JOIN users v ON v.id = t.receiver_id
		WHERE (t.sender_id = $1 OR t.receiver_id = $2)`
	args := []any{userID, userID}
	n := 3

	if filter.Since != nil {
		query += fmt.Sprintf(" AND t.created_at >= $%d", n)
		args = append(args, *filter.Since)
		n++
	}

	query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var result []*RowWithParties
	for rows.Next() {
		row := &RowWithParties{}
		var requestID uuid.NullUUID
		var senderFirst, senderLast, receiverFirst, receiverLast string
		err := rows.Scan(
			&row.Tx.ID, &row.Tx.SenderID, &row.Tx.ReceiverID,
			&row.Tx.AmountTime, &row.Tx.AmountRegio,
			&row.Tx.Reference, &requestID, &row.Tx.IsSystemFee, &row.Tx.CreatedAt,
			&row.SenderCode, &senderFirst, &senderLast,
			&row.ReceiverCode, &receiverFirst, &receiverLast,
		)
		if err != nil {
			return nil, err
		}
		if requestID.Valid {
			id := requestID.UUID
			row.Tx.PaymentRequestID = &id
		}
		row.SenderName = joinName(senderFirst, senderLast)
		row.ReceiverName = joinName(receiverFirst, receiverLast)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter Filter) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE (sender_id = $1 OR receiver_id = $2)`
	args := []any{userID, userID}

	if filter.Since != nil {
		query += " AND created_at >= $3"
		args = append(args, *filter.Since)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
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
