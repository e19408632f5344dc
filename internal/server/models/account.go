package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency identifies one of the two community currencies.
type Currency string

const (
	// CurrencyTime is denominated in whole minutes of labor.
	CurrencyTime Currency = "TIME"
	// CurrencyRegio is the decimal local currency (2 fractional digits).
	CurrencyRegio Currency = "REGIO"
)

// Account is one member's balance in one currency. Every member owns
// exactly one TIME and one REGIO account, created at registration.
//
// Version is the optimistic-lock counter: every balance write is guarded
// by the version read beforehand and increments it. A guarded update that
// matches zero rows means a concurrent writer won and the whole operation
// must be retried from fresh reads.
type Account struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Type   Currency

	// BalanceTime is used by TIME accounts, BalanceRegio by REGIO
	// accounts; the other column stays at its zero value.
	BalanceTime  int64
	BalanceRegio decimal.Decimal

	Version int64

	// LastDemurrageCalc marks the last time the demurrage job evaluated
	// this account, whether or not tax was charged.
	LastDemurrageCalc time.Time
}
