// Package settlement runs the periodic systemic charges: the membership
// fee sweep and the demurrage (anti-hoarding) tax. Both feed the ledger
// engine with skip-limit system transfers into the designated sink
// account, and both tolerate individual failures: one bad account never
// aborts a batch.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/banking"
	"github.com/tauschring/kontor/internal/server/config"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
)

type Service struct {
	db     *sql.DB
	repos  repomanager.Manager
	bank   *banking.Service
	cfg    *config.Config
	logger logging.Logger

	now func() time.Time
}

func NewService(db *sql.DB, repos repomanager.Manager, bank *banking.Service, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		bank:   bank,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FeeStatus is the per-member outcome of a fee sweep.
type FeeStatus string

const (
	FeeSuccess FeeStatus = "SUCCESS"
	FeeFailed  FeeStatus = "FAILED"
)

// FeeResult records one member's debit attempt.
type FeeResult struct {
	UserCode string
	Status   FeeStatus
	Error    string
}

// SweepReport summarizes one membership fee sweep.
type SweepReport struct {
	Results   []FeeResult
	Succeeded int
	Failed    int
}

// SweepMembershipFees debits every active, non-administrative member the
// configured number of Time minutes into the system sink. The debit skips
// the trust-floor check: the fee is a system-mandated charge, not
// discretionary spending. A debit that loses a version race is retried up
// to the configured limit; remaining per-member failures are recorded and
// the sweep moves on.
func (s *Service) SweepMembershipFees(ctx context.Context) (*SweepReport, error) {
	userRepo := s.repos.Users(s.db)

	if _, err := userRepo.GetByCode(ctx, s.cfg.SystemSinkCode); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("system sink %s does not exist", s.cfg.SystemSinkCode)
		}
		return nil, err
	}

	members, err := userRepo.ListActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	for _, member := range members {
		if member.UserCode == s.cfg.SystemSinkCode {
			continue
		}
		_, err := s.bank.TransferWithRetry(ctx, banking.TransferParams{
			SenderCode:     member.UserCode,
			ReceiverCode:   s.cfg.SystemSinkCode,
			AmountTime:     s.cfg.MonthlyFeeMinutes,
			AmountRegio:    decimal.Zero,
			Reference:      "Membership fee",
			IsSystemFee:    true,
			SkipLimitCheck: true,
		}, s.cfg.TransferMaxRetries)
		if err != nil {
			s.logger.Error(ctx, "membership fee debit failed",
				"user_code", member.UserCode, "error", err.Error())
			report.Results = append(report.Results, FeeResult{
				UserCode: member.UserCode,
				Status:   FeeFailed,
				Error:    err.Error(),
			})
			report.Failed++
			continue
		}
		report.Results = append(report.Results, FeeResult{
			UserCode: member.UserCode,
			Status:   FeeSuccess,
		})
		report.Succeeded++
	}

	s.logger.Info(ctx, "membership fee sweep finished",
		"succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// DemurrageReport summarizes one demurrage run.
type DemurrageReport struct {
	// Scanned counts accounts above the threshold, Charged those that
	// actually paid tax.
	Scanned       int
	Charged       int
	TotalMinutes  int64
	FailedCharges int
}

// RunDemurrage taxes idle TIME balances above the configured threshold.
// For each candidate account it computes the whole-day gap since the last
// evaluation; under one day the account is skipped untouched (so an
// immediate rerun charges nothing). Otherwise the tax
//
//	round((balance - threshold) * annualRate/365 * days)
//
// is transferred to the sink past the trust floor, and the evaluation
// timestamp is advanced whether or not tax was due or the transfer
// succeeded, so retries never double-charge.
func (s *Service) RunDemurrage(ctx context.Context) (*DemurrageReport, error) {
	accountRepo := s.repos.Accounts(s.db)
	userRepo := s.repos.Users(s.db)

	candidates, err := accountRepo.ListTimeAccountsAbove(ctx, s.cfg.DemurrageThresholdMinutes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &DemurrageReport{}

	for _, account := range candidates {
		report.Scanned++

		days := now.Sub(account.LastDemurrageCalc).Hours() / 24
		if days < 1 {
			continue
		}

		taxable := account.BalanceTime - s.cfg.DemurrageThresholdMinutes
		dailyRate := s.cfg.DemurrageRateAnnual / 365
		tax := int64(math.Round(float64(taxable) * dailyRate * days))

		if tax > 0 {
			user, err := userRepo.GetByID(ctx, account.UserID)
			if err != nil {
				s.logger.Error(ctx, "demurrage: owner lookup failed",
					"account_id", account.ID, "error", err.Error())
				report.FailedCharges++
				continue
			}

			_, err = s.bank.TransferWithRetry(ctx, banking.TransferParams{
				SenderCode:     user.UserCode,
				ReceiverCode:   s.cfg.SystemSinkCode,
				AmountTime:     tax,
				AmountRegio:    decimal.Zero,
				Reference:      fmt.Sprintf("Demurrage (%.1f days)", days),
				IsSystemFee:    true,
				SkipLimitCheck: true,
			}, s.cfg.TransferMaxRetries)
			if err != nil {
				s.logger.Error(ctx, "demurrage charge failed",
					"user_code", user.UserCode, "minutes", tax, "error", err.Error())
				report.FailedCharges++
			} else {
				report.Charged++
				report.TotalMinutes += tax
			}
		}

		if err := accountRepo.TouchDemurrage(ctx, account.ID, now); err != nil {
			s.logger.Error(ctx, "demurrage: timestamp advance failed",
				"account_id", account.ID, "error", err.Error())
		}
	}

	s.logger.Info(ctx, "demurrage run finished",
		"scanned", report.Scanned, "charged", report.Charged,
		"total_minutes", report.TotalMinutes)
	return report, nil
}
