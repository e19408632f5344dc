// Package transactions persists the append-only transfer log.
package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/server/models"
)

// RowWithParties is a transaction joined with both parties' public codes
// and names, the shape the history view needs.
type RowWithParties struct {
	Tx           models.Transaction
	SenderCode   string
	SenderName   string
	ReceiverCode string
	ReceiverName string
}

// Filter restricts history queries. Since, when set, keeps only
// transactions created at or after that instant.
type Filter struct {
	Since *time.Time
}

type Repository interface {
	// Create appends the record. Transactions are never updated or
	// deleted afterwards.
	Create(ctx context.Context, tx *models.Transaction) error

	// ListByUser returns transactions where the user is sender or
	// receiver, newest first, joined with both parties.
	ListByUser(ctx context.Context, userID uuid.UUID, filter Filter, limit, offset int) ([]*RowWithParties, error)
	CountByUser(ctx context.Context, userID uuid.UUID, filter Filter) (int64, error)
}
