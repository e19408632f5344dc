// Package models holds the persistent data model of the ledger: members,
// their currency accounts, immutable transaction records and payment
// requests. Rows are mutated only through the service layer.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/server/trust"
)

// User is a community member. UserCode is the stable public identifier
// (one uppercase letter plus four digits) used to address transfers;
// the UUID primary key never leaves the backend.
type User struct {
	ID           uuid.UUID
	UserCode     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string

	IsActive      bool
	IsSystemAdmin bool

	// TrustTier together with the trust policy determines how far the
	// member's accounts may go into debt. TotalTimeEarned is the lifetime
	// Time income that drives tier promotion.
	TrustTier       trust.Tier
	TotalTimeEarned int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName is the display name used in history entries.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
