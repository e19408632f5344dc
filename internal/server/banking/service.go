// Package banking is the ledger engine: it validates and atomically
// executes transfers between member accounts, runs the payment-request
// state machine, and exposes the read-only balance and history surface.
//
// Concurrency control is purely optimistic. Each balance write is guarded
// by the account version read at the start of the operation; a guard that
// matches zero rows aborts the whole database transaction with
// ErrTransactionConflict and the caller retries from fresh reads. No row
// locks, no advisory locks.
package banking

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
	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/repositories/accounts"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
	"github.com/tauschring/kontor/internal/server/trust"
)

type Service struct {
	db     *sql.DB
	repos  repomanager.Manager
	policy *trust.Policy
	logger logging.Logger

	// now is split out for tests; always UTC.
	now func() time.Time
}

func NewService(db *sql.DB, repos repomanager.Manager, policy *trust.Policy, logger logging.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		policy: policy,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TransferParams describes one transfer. At least one amount must be
// positive; both must be non-negative.
type TransferParams struct {
	SenderCode   string
	ReceiverCode string
	AmountTime   int64
	AmountRegio  decimal.Decimal
	Reference    string

	// OriginRequestID links the transaction to the payment request that
	// triggered it, when there is one.
	OriginRequestID *uuid.UUID

	// IsSystemFee marks settlement-job debits in the transaction log.
	IsSystemFee bool

	// SkipLimitCheck lets system-mandated charges (membership fee,
	// demurrage) push an account below its trust-tier floor. Regular
	// transfers never set it.
	SkipLimitCheck bool
}

func validateAmounts(amountTime int64, amountRegio decimal.Decimal) error {
	if amountTime < 0 || amountRegio.IsNegative() {
		return fmt.Errorf("%w: negative amounts are not allowed", ErrInvalidAmount)
	}
	if amountTime == 0 && amountRegio.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// Transfer atomically moves funds from sender to receiver and appends the
// transaction record. The four balance updates, the receiver's
// lifetime-earned/promotion update and the transaction insert are one
// database transaction: either all apply or none do.
func (s *Service) Transfer(ctx context.Context, p TransferParams) (*models.Transaction, error) {
	var tx *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		tx, err = s.transferTx(ctx, db, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// transferTx is the engine body, running on an open transaction so the
// payment-request workflow can execute a transfer and flip the request
// status in the same atomic unit.
func (s *Service) transferTx(ctx context.Context, db dbx.DBTX, p TransferParams) (*models.Transaction, error) {
	if err := validateAmounts(p.AmountTime, p.AmountRegio); err != nil {
		return nil, err
	}
	if p.SenderCode == p.ReceiverCode {
		return nil, ErrSelfTransfer
	}

	userRepo := s.repos.Users(db)
	accountRepo := s.repos.Accounts(db)

	sender, err := userRepo.GetByCode(ctx, p.SenderCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("sender %s: %w", p.SenderCode, ErrUserNotFound)
		}
		return nil, err
	}
	receiver, err := userRepo.GetByCode(ctx, p.ReceiverCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("receiver %s: %w", p.ReceiverCode, ErrUserNotFound)
		}
		return nil, err
	}

	senderTime, err := s.accountOrFail(ctx, accountRepo, sender.ID, models.CurrencyTime)
	if err != nil {
		return nil, err
	}
	senderRegio, err := s.accountOrFail(ctx, accountRepo, sender.ID, models.CurrencyRegio)
	if err != nil {
		return nil, err
	}
	receiverTime, err := s.accountOrFail(ctx, accountRepo, receiver.ID, models.CurrencyTime)
	if err != nil {
		return nil, err
	}
	receiverRegio, err := s.accountOrFail(ctx, accountRepo, receiver.ID, models.CurrencyRegio)
	if err != nil {
		return nil, err
	}

	projectedTime := senderTime.BalanceTime - p.AmountTime
	projectedRegio := senderRegio.BalanceRegio.Sub(p.AmountRegio)

	if !p.SkipLimitCheck {
		floor := s.policy.Floors(sender.TrustTier)
		if projectedTime < floor.Time {
			return nil, &InsufficientFundsError{
				Currency:  models.CurrencyTime,
				Projected: decimal.NewFromInt(projectedTime),
				Floor:     decimal.NewFromInt(floor.Time),
			}
		}
		if projectedRegio.LessThan(floor.Regio) {
			return nil, &InsufficientFundsError{
				Currency:  models.CurrencyRegio,
				Projected: projectedRegio,
				Floor:     floor.Regio,
			}
		}
	}

	// Fixed update order: sender TIME, sender REGIO, receiver TIME,
	// receiver REGIO. The order does not prevent deadlock (there are no
	// row locks to order), it makes conflict behavior deterministic.
	if err := s.guarded(accountRepo.UpdateTimeBalance(ctx, senderTime.ID, senderTime.Version, projectedTime)); err != nil {
		return nil, err
	}
	if err := s.guarded(accountRepo.UpdateRegioBalance(ctx, senderRegio.ID, senderRegio.Version, projectedRegio)); err != nil {
		return nil, err
	}
	if err := s.guarded(accountRepo.UpdateTimeBalance(ctx, receiverTime.ID, receiverTime.Version, receiverTime.BalanceTime+p.AmountTime)); err != nil {
		return nil, err
	}
	if err := s.guarded(accountRepo.UpdateRegioBalance(ctx, receiverRegio.ID, receiverRegio.Version, receiverRegio.BalanceRegio.Add(p.AmountRegio))); err != nil {
		return nil, err
	}

	now := s.now()

	if p.AmountTime > 0 {
		newTotal := receiver.TotalTimeEarned + p.AmountTime
		tier := receiver.TrustTier
		if candidate := s.policy.NextTier(newTotal); s.policy.IsPromotion(candidate, tier) {
			tier = candidate
			s.logger.Info(ctx, "trust tier promotion",
				"user_code", receiver.UserCode, "tier", tier, "total_earned", newTotal)
		}
		if err := userRepo.UpdateTrust(ctx, receiver.ID, newTotal, tier, now); err != nil {
			return nil, fmt.Errorf("update receiver earnings: %w", err)
		}
	}

	tx := &models.Transaction{
		ID:               uuid.New(),
		SenderID:         sender.ID,
		ReceiverID:       receiver.ID,
		AmountTime:       p.AmountTime,
		AmountRegio:      p.AmountRegio,
		Reference:        p.Reference,
		PaymentRequestID: p.OriginRequestID,
		IsSystemFee:      p.IsSystemFee,
		CreatedAt:        now,
	}
	if err := s.repos.Transactions(db).Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) accountOrFail(ctx context.Context, repo accounts.Repository, userID uuid.UUID, currency models.Currency) (*models.Account, error) {
	account, err := repo.GetByUser(ctx, userID, currency)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%s account for user %s: %w", currency, userID, ErrAccountNotFound)
		}
		return nil, err
	}
	return account, nil
}

// guarded translates a repository version-guard failure into the engine's
// conflict error. Returning it aborts the enclosing transaction, so the
// guarded updates already executed are rolled back together.
func (s *Service) guarded(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrVersionConflict) {
		return ErrTransactionConflict
	}
	return err
}
