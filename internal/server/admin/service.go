// Package admin is the administrative surface: community-wide statistics
// and dispute resolution over stuck payment requests.
package admin

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/banking"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/repositories/paymentrequests"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
)

type Service struct {
	db     *sql.DB
	repos  repomanager.Manager
	bank   *banking.Service
	logger logging.Logger
}

func NewService(db *sql.DB, repos repomanager.Manager, bank *banking.Service, logger logging.Logger) *Service {
	return &Service{db: db, repos: repos, bank: bank, logger: logger}
}

// Stats is the community health snapshot.
type Stats struct {
	TotalMembers  int64
	ActiveMembers int64

	// Circulation volume: the sum of all positive balances per currency.
	CirculationTime  int64
	CirculationRegio decimal.Decimal

	// Net sums across all accounts. A healthy ledger is zero-sum, so a
	// non-zero net indicates corruption.
	NetTime  int64
	NetRegio decimal.Decimal

	PendingRequests int64
}

// Stats computes the current community statistics. Read-only.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	userRepo := s.repos.Users(s.db)
	accountRepo := s.repos.Accounts(s.db)

	stats := &Stats{}
	var err error

	if stats.TotalMembers, err = userRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveMembers, err = userRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.CirculationTime, err = accountRepo.SumPositiveTime(ctx); err != nil {
		return nil, err
	}
	if stats.CirculationRegio, err = accountRepo.SumPositiveRegio(ctx); err != nil {
		return nil, err
	}
	if stats.NetTime, err = accountRepo.SumNetTime(ctx); err != nil {
		return nil, err
	}
	if stats.NetRegio, err = accountRepo.SumNetRegio(ctx); err != nil {
		return nil, err
	}
	if stats.PendingRequests, err = s.repos.PaymentRequests(s.db).CountPending(ctx); err != nil {
		return nil, err
	}

	if stats.NetTime != 0 || !stats.NetRegio.IsZero() {
		s.logger.Warn(ctx, "ledger net sum is non-zero",
			"net_time", stats.NetTime, "net_regio", stats.NetRegio)
	}
	return stats, nil
}

// PendingDisputes lists every pending payment request, joined with both
// parties, for administrative review.
func (s *Service) PendingDisputes(ctx context.Context) ([]*paymentrequests.RowWithParties, error) {
	return s.repos.PaymentRequests(s.db).ListPending(ctx)
}

// ResolveDispute forces a pending payment request to a decision,
// bypassing the debtor check. approve executes the underlying transfer.
func (s *Service) ResolveDispute(ctx context.Context, requestID uuid.UUID, approve bool) (*models.PaymentRequest, error) {
	action := banking.ActionReject
	if approve {
		action = banking.ActionApprove
	}
	req, err := s.bank.ProcessPaymentRequest(ctx, requestID, banking.SystemOverride(), action)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "dispute resolved",
		"request_id", requestID, "status", req.Status)
	return req, nil
}
