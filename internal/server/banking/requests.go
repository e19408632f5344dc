package banking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/server/models"
)

// CreatePaymentRequest opens a PENDING invoice from creditor to debtor.
// Amount validation matches Transfer.
func (s *Service) CreatePaymentRequest(ctx context.Context, creditorCode, debtorCode string, amountTime int64, amountRegio decimal.Decimal, description string) (*models.PaymentRequest, error) {
	if err := validateAmounts(amountTime, amountRegio); err != nil {
		return nil, err
	}
	if creditorCode == debtorCode {
		return nil, ErrSelfTransfer
	}

	var req *models.PaymentRequest
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		userRepo := s.repos.Users(db)

		creditor, err := userRepo.GetByCode(ctx, creditorCode)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("creditor %s: %w", creditorCode, ErrUserNotFound)
			}
			return err
		}
		debtor, err := userRepo.GetByCode(ctx, debtorCode)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("debtor %s: %w", debtorCode, ErrUserNotFound)
			}
			return err
		}

		now := s.now()
		req = &models.PaymentRequest{
			ID:          uuid.New(),
			CreditorID:  creditor.ID,
			DebtorID:    debtor.ID,
			AmountTime:  amountTime,
			AmountRegio: amountRegio,
			Description: description,
			Status:      models.RequestPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.repos.PaymentRequests(db).Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ProcessPaymentRequest resolves a pending request. A UserActor must be
// the request's debtor; SystemOverride bypasses that check (dispute
// resolution). APPROVE executes the transfer debtor→creditor and flips
// the request to EXECUTED in the same database transaction, so a transfer
// failure (insufficient funds, conflict) leaves the request PENDING and
// propagates unmodified.
func (s *Service) ProcessPaymentRequest(ctx context.Context, requestID uuid.UUID, actor Actor, action RequestAction) (*models.PaymentRequest, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("unknown payment request action %q", action)
	}

	var req *models.PaymentRequest
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		requestRepo := s.repos.PaymentRequests(db)

		var err error
		req, err = requestRepo.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return ErrPaymentRequestNotFound
			}
			return err
		}
		if req.Status.Terminal() {
			return &InvalidStatusError{Status: req.Status}
		}
		if !actor.mayActFor(req.DebtorID) {
			return ErrUnauthorized
		}

		now := s.now()

		if action == ActionReject {
			req.Status = models.RequestRejected
			req.UpdatedAt = now
			return requestRepo.SetStatus(ctx, req.ID, models.RequestRejected, nil, now)
		}

		userRepo := s.repos.Users(db)
		debtor, err := userRepo.GetByID(ctx, req.DebtorID)
		if err != nil {
			return fmt.Errorf("load debtor: %w", err)
		}
		creditor, err := userRepo.GetByID(ctx, req.CreditorID)
		if err != nil {
			return fmt.Errorf("load creditor: %w", err)
		}

		originID := req.ID
		tx, err := s.transferTx(ctx, db, TransferParams{
			SenderCode:      debtor.UserCode,
			ReceiverCode:    creditor.UserCode,
			AmountTime:      req.AmountTime,
			AmountRegio:     req.AmountRegio,
			Reference:       req.Description,
			OriginRequestID: &originID,
		})
		if err != nil {
			return err
		}

		req.Status = models.RequestExecuted
		req.TransactionID = &tx.ID
		req.UpdatedAt = now
		return requestRepo.SetStatus(ctx, req.ID, models.RequestExecuted, &tx.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CancelPaymentRequest withdraws a pending request. Only the creditor may
// cancel, and only while the request is still PENDING.
func (s *Service) CancelPaymentRequest(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID) (*models.PaymentRequest, error) {
	var req *models.PaymentRequest
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		requestRepo := s.repos.PaymentRequests(db)

		var err error
		req, err = requestRepo.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return ErrPaymentRequestNotFound
			}
			return err
		}
		if req.Status.Terminal() {
			return &InvalidStatusError{Status: req.Status}
		}
		if req.CreditorID != actorID {
			return ErrUnauthorized
		}

		now := s.now()
		req.Status = models.RequestCancelled
		req.UpdatedAt = now
		return requestRepo.SetStatus(ctx, req.ID, models.RequestCancelled, nil, now)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}
