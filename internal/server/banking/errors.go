package banking

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tauschring/kontor/internal/server/models"
)

// The ledger's failure taxonomy. All of these are expected, typed
// failures surfaced to the caller; match them with errors.Is. Anything
// else coming out of the engine is an internal failure that already
// rolled the transaction back.
var (
	// ErrInvalidAmount covers negative amounts and the both-zero case.
	ErrInvalidAmount = errors.New("transaction must move a positive amount")

	// ErrSelfTransfer is returned when sender and receiver are the same
	// member.
	ErrSelfTransfer = errors.New("cannot transfer funds to yourself")

	ErrUserNotFound    = errors.New("user not found")
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is the unwrap target of
	// InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransactionConflict signals an optimistic-lock failure: another
	// writer committed against an account version we read. Nothing was
	// applied; re-read and retry the whole transfer.
	ErrTransactionConflict = errors.New("transaction conflict, retry from fresh state")

	ErrPaymentRequestNotFound = errors.New("payment request not found")

	// ErrInvalidStatus is the unwrap target of InvalidStatusError.
	ErrInvalidStatus = errors.New("payment request is not pending")

	ErrUnauthorized = errors.New("not authorized to manage this payment request")
)

// InsufficientFundsError reports which currency breached the trust-tier
// floor and by how much. It unwraps to ErrInsufficientFunds.
type InsufficientFundsError struct {
	Currency  models.Currency
	Projected decimal.Decimal
	Floor     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s funds: projected balance %s below floor %s",
		e.Currency, e.Projected, e.Floor)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// InvalidStatusError reports the terminal status that blocked a
// payment-request transition. It unwraps to ErrInvalidStatus.
type InvalidStatusError struct {
	Status models.RequestStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("payment request is %s, cannot process", e.Status)
}

func (e *InvalidStatusError) Unwrap() error {
	return ErrInvalidStatus
}
