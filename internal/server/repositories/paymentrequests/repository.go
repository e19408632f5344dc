// Package paymentrequests persists invoice-style payment requests.
package paymentrequests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tauschring/kontor/internal/server/models"
)

// RowWithParties is a request joined with both parties' codes and names.
type RowWithParties struct {
	Request      models.PaymentRequest
	CreditorCode string
	CreditorName string
	DebtorCode   string
	DebtorName   string
}

type Repository interface {
	Create(ctx context.Context, req *models.PaymentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error)

	// SetStatus moves the request to a new status, optionally linking the
	// executed transaction. Callers enforce the state machine; the
	// repository just writes.
	SetStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, transactionID *uuid.UUID, updatedAt time.Time) error

	ListPendingByDebtor(ctx context.Context, debtorID uuid.UUID) ([]*RowWithParties, error)
	ListPendingByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*RowWithParties, error)

	// ListPending returns every pending request, for administrative
	// dispute review.
	ListPending(ctx context.Context) ([]*RowWithParties, error)
	CountPending(ctx context.Context) (int64, error)
}
