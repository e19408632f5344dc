// Package accounts persists per-member, per-currency balance records.
// Balance writes are version-guarded conditional updates: the version
// column is the only concurrency-control mechanism in the ledger.
package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/server/models"
)

type Repository interface {
	// CreatePair inserts the TIME and REGIO accounts for a new member,
	// both starting at zero with version 1.
	CreatePair(ctx context.Context, userID uuid.UUID, createdAt time.Time) error

	GetByUser(ctx context.Context, userID uuid.UUID, currency models.Currency) (*models.Account, error)

	// UpdateTimeBalance / UpdateRegioBalance set a new balance if and only
	// if the row still carries expectedVersion, incrementing the version.
	// They return common.ErrVersionConflict when the guard matches zero
	// rows.
	UpdateTimeBalance(ctx context.Context, id uuid.UUID, expectedVersion int64, newBalance int64) error
	UpdateRegioBalance(ctx context.Context, id uuid.UUID, expectedVersion int64, newBalance decimal.Decimal) error

	// TouchDemurrage advances last_demurrage_calc without changing the
	// balance or version.
	TouchDemurrage(ctx context.Context, id uuid.UUID, calcTime time.Time) error

	// ListTimeAccountsAbove returns TIME accounts of non-administrative
	// users whose balance exceeds the threshold, the demurrage candidates.
	ListTimeAccountsAbove(ctx context.Context, threshold int64) ([]*models.Account, error)

	// Aggregates for reporting. The positive sums are the "in
	// circulation" volume; the net sums should be zero in a healthy
	// zero-sum ledger.
	SumPositiveTime(ctx context.Context) (int64, error)
	SumPositiveRegio(ctx context.Context) (decimal.Decimal, error)
	SumNetTime(ctx context.Context) (int64, error)
	SumNetRegio(ctx context.Context) (decimal.Decimal, error)
}
