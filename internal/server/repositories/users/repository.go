// Package users persists community members.
package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/trust"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByCode(ctx context.Context, userCode string) (*models.User, error)

	// UpdateTrust rewrites the lifetime-earned counter and trust tier.
	// Only the ledger engine calls this, inside a transfer transaction.
	UpdateTrust(ctx context.Context, id uuid.UUID, totalTimeEarned int64, tier trust.Tier, updatedAt time.Time) error

	// UpdateAdminFields applies an administrative override. Nil fields
	// are left untouched.
	UpdateAdminFields(ctx context.Context, id uuid.UUID, tier *trust.Tier, isActive *bool, updatedAt time.Time) error

	// ListActiveMembers returns active, non-administrative users, the
	// population subject to the settlement jobs.
	ListActiveMembers(ctx context.Context) ([]*models.User, error)

	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}
