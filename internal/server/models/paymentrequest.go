package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the payment-request state machine. PENDING is the only
// non-terminal state; EXECUTED, REJECTED and CANCELLED are final.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestExecuted  RequestStatus = "EXECUTED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s RequestStatus) Terminal() bool {
	return s != RequestPending
}

// PaymentRequest is an invoice: the creditor asks the debtor for payment.
// The debtor approves or rejects it, the creditor may cancel it while it
// is still pending, and an administrative override can force either
// resolution during a dispute.
type PaymentRequest struct {
	ID         uuid.UUID
	CreditorID uuid.UUID
	DebtorID   uuid.UUID

	AmountTime  int64
	AmountRegio decimal.Decimal

	Description string
	Status      RequestStatus

	// TransactionID is set when the request is executed.
	TransactionID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}
