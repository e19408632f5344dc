package banking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/paging"
	"github.com/tauschring/kontor/internal/server/repositories/paymentrequests"
	"github.com/tauschring/kontor/internal/server/repositories/transactions"
	"github.com/tauschring/kontor/internal/server/trust"
)

// BalanceInfo is the balances-and-limits snapshot for one member.
type BalanceInfo struct {
	UserCode        string
	TrustTier       trust.Tier
	TotalTimeEarned int64

	BalanceTime  int64
	BalanceRegio decimal.Decimal

	// Debt floors implied by the member's tier, and how much headroom is
	// left above them.
	FloorTime      int64
	FloorRegio     decimal.Decimal
	AvailableTime  int64
	AvailableRegio decimal.Decimal
}

// HistoryEntry is one transaction seen from the viewer's side.
type HistoryEntry struct {
	ID          string
	Date        time.Time
	Direction   models.Direction
	PartyCode   string
	PartyName   string
	AmountTime  int64
	AmountRegio decimal.Decimal
	Reference   string
	IsSystemFee bool
}

// History is a page of entries plus paging metadata.
type History struct {
	Entries []HistoryEntry
	Meta    paging.Meta
}

// BalanceInfo returns the member's balances, tier and remaining headroom
// under the tier's debt floors. Read-only.
func (s *Service) BalanceInfo(ctx context.Context, userCode string) (*BalanceInfo, error) {
	userRepo := s.repos.Users(s.db)
	accountRepo := s.repos.Accounts(s.db)

	user, err := userRepo.GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userCode, ErrUserNotFound)
		}
		return nil, err
	}

	timeAccount, err := s.accountOrFail(ctx, accountRepo, user.ID, models.CurrencyTime)
	if err != nil {
		return nil, err
	}
	regioAccount, err := s.accountOrFail(ctx, accountRepo, user.ID, models.CurrencyRegio)
	if err != nil {
		return nil, err
	}

	floor := s.policy.Floors(user.TrustTier)
	return &BalanceInfo{
		UserCode:        user.UserCode,
		TrustTier:       user.TrustTier,
		TotalTimeEarned: user.TotalTimeEarned,
		BalanceTime:     timeAccount.BalanceTime,
		BalanceRegio:    regioAccount.BalanceRegio,
		FloorTime:       floor.Time,
		FloorRegio:      floor.Regio,
		AvailableTime:   timeAccount.BalanceTime - floor.Time,
		AvailableRegio:  regioAccount.BalanceRegio.Sub(floor.Regio),
	}, nil
}

// History returns the viewer-relative transaction history, newest first.
// sinceDays > 0 restricts the page to the last that many days.
func (s *Service) History(ctx context.Context, userCode string, page paging.Page, sinceDays int) (*History, error) {
	user, err := s.repos.Users(s.db).GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userCode, ErrUserNotFound)
		}
		return nil, err
	}

	filter := transactions.Filter{}
	if sinceDays > 0 {
		since := s.now().AddDate(0, 0, -sinceDays)
		filter.Since = &since
	}

	txRepo := s.repos.Transactions(s.db)
	total, err := txRepo.CountByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, err
	}
	rows, err := txRepo.ListByUser(ctx, user.ID, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := HistoryEntry{
			ID:          row.Tx.ID.String(),
			Date:        row.Tx.CreatedAt,
			AmountTime:  row.Tx.AmountTime,
			AmountRegio: row.Tx.AmountRegio,
			Reference:   row.Tx.Reference,
			IsSystemFee: row.Tx.IsSystemFee,
		}
		if row.Tx.SenderID == user.ID {
			entry.Direction = models.DirectionOutgoing
			entry.PartyCode = row.ReceiverCode
			entry.PartyName = row.ReceiverName
		} else {
			entry.Direction = models.DirectionIncoming
			entry.PartyCode = row.SenderCode
			entry.PartyName = row.SenderName
		}
		entries = append(entries, entry)
	}

	return &History{
		Entries: entries,
		Meta:    paging.NewMeta(page, total),
	}, nil
}

// IncomingRequests lists pending requests where the member is the debtor.
func (s *Service) IncomingRequests(ctx context.Context, userCode string) ([]*paymentrequests.RowWithParties, error) {
	user, err := s.repos.Users(s.db).GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userCode, ErrUserNotFound)
		}
		return nil, err
	}
	return s.repos.PaymentRequests(s.db).ListPendingByDebtor(ctx, user.ID)
}

// OutgoingRequests lists pending requests where the member is the
// creditor.
func (s *Service) OutgoingRequests(ctx context.Context, userCode string) ([]*paymentrequests.RowWithParties, error) {
	user, err := s.repos.Users(s.db).GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userCode, ErrUserNotFound)
		}
		return nil, err
	}
	return s.repos.PaymentRequests(s.db).ListPendingByCreditor(ctx, user.ID)
}
