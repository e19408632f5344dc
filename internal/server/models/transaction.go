package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction classifies a transaction from a particular viewer's side.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
)

// Transaction is the immutable record of one completed transfer. It is
// written exactly once per successful transfer and never updated or
// deleted; balances can always be re-derived from the transaction log.
type Transaction struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID

	AmountTime  int64
	AmountRegio decimal.Decimal

	Reference string

	// PaymentRequestID links back to the request that triggered this
	// transfer, when there was one.
	PaymentRequestID *uuid.UUID

	// IsSystemFee marks transfers initiated by the settlement jobs
	// (membership fee, demurrage) rather than by a member.
	IsSystemFee bool

	CreatedAt time.Time
}
