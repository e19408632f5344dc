package banking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/testdb"
)

func TestCreatePaymentRequest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 90, decimal.Zero, "Bike repair")
	require.NoError(t, err)

	assert.Equal(t, anna.ID, req.CreditorID)
	assert.Equal(t, bruno.ID, req.DebtorID)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Nil(t, req.TransactionID)

	// Visible on both sides.
	incoming, err := svc.IncomingRequests(ctx, bruno.UserCode)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, req.ID, incoming[0].Request.ID)
	assert.Equal(t, "A1001", incoming[0].CreditorCode)

	outgoing, err := svc.OutgoingRequests(ctx, anna.UserCode)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "B2002", outgoing[0].DebtorCode)
}

func TestCreatePaymentRequest_Validation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})

	_, err := svc.CreatePaymentRequest(ctx, anna.UserCode, anna.UserCode, 10, decimal.Zero, "")
	require.ErrorIs(t, err, ErrSelfTransfer)

	_, err = svc.CreatePaymentRequest(ctx, anna.UserCode, "B2002", 0, decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreatePaymentRequest(ctx, anna.UserCode, "X9999", 10, decimal.Zero, "")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestProcessPaymentRequest_ApproveExecutesTransfer(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	testdb.SetTimeBalance(t, db, bruno.ID, 120)

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 90, decimal.Zero, "Bike repair")
	require.NoError(t, err)

	processed, err := svc.ProcessPaymentRequest(ctx, req.ID, UserActor(bruno.ID), ActionApprove)
	require.NoError(t, err)

	assert.Equal(t, models.RequestExecuted, processed.Status)
	require.NotNil(t, processed.TransactionID)

	// Funds moved debtor to creditor, and the transaction is linked back
	// to the request.
	assert.EqualValues(t, 30, testdb.TimeBalance(t, db, bruno.ID))
	assert.EqualValues(t, 90, testdb.TimeBalance(t, db, anna.ID))

	var linked string
	require.NoError(t, db.QueryRow(`SELECT payment_request_id FROM transactions WHERE id = $1`,
		*processed.TransactionID).Scan(&linked))
	assert.Equal(t, req.ID.String(), linked)
}

func TestProcessPaymentRequest_Reject(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	testdb.SetTimeBalance(t, db, bruno.ID, 120)

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 90, decimal.Zero, "")
	require.NoError(t, err)

	processed, err := svc.ProcessPaymentRequest(ctx, req.ID, UserActor(bruno.ID), ActionReject)
	require.NoError(t, err)

	assert.Equal(t, models.RequestRejected, processed.Status)
	assert.Nil(t, processed.TransactionID)
	assert.EqualValues(t, 120, testdb.TimeBalance(t, db, bruno.ID))
	assert.Equal(t, 0, testdb.CountTransactions(t, db))
}

func TestProcessPaymentRequest_OnlyDebtorMayAct(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	carla := testdb.SeedUser(t, db, "C3003", "Carla", "Conrad", testdb.SeedUserOpts{})

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 30, decimal.Zero, "")
	require.NoError(t, err)

	// Neither the creditor nor a third party may approve.
	_, err = svc.ProcessPaymentRequest(ctx, req.ID, UserActor(anna.ID), ActionApprove)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.ProcessPaymentRequest(ctx, req.ID, UserActor(carla.ID), ActionApprove)
	require.ErrorIs(t, err, ErrUnauthorized)

	reloaded, err := svc.repos.PaymentRequests(db).GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, reloaded.Status)
}

func TestProcessPaymentRequest_SystemOverride(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	testdb.SetTimeBalance(t, db, bruno.ID, 120)

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 30, decimal.Zero, "Dispute")
	require.NoError(t, err)

	processed, err := svc.ProcessPaymentRequest(ctx, req.ID, SystemOverride(), ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExecuted, processed.Status)
	assert.EqualValues(t, 90, testdb.TimeBalance(t, db, bruno.ID))
}

func TestProcessPaymentRequest_TerminalIsFrozen(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	testdb.SetTimeBalance(t, db, bruno.ID, 120)

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 30, decimal.Zero, "")
	require.NoError(t, err)

	_, err = svc.ProcessPaymentRequest(ctx, req.ID, UserActor(bruno.ID), ActionReject)
	require.NoError(t, err)

	// A rejected request cannot be approved afterwards.
	_, err = svc.ProcessPaymentRequest(ctx, req.ID, UserActor(bruno.ID), ActionApprove)
	require.ErrorIs(t, err, ErrInvalidStatus)

	var detail *InvalidStatusError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, models.RequestRejected, detail.Status)
}

func TestProcessPaymentRequest_InsufficientFundsKeepsPending(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})

	// 90 minutes from a zero T1 balance breaches the -60 floor.
	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 90, decimal.Zero, "")
	require.NoError(t, err)

	_, err = svc.ProcessPaymentRequest(ctx, req.ID, UserActor(bruno.ID), ActionApprove)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	reloaded, err := svc.repos.PaymentRequests(db).GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, reloaded.Status)
	assert.Nil(t, reloaded.TransactionID)
	assert.EqualValues(t, 0, testdb.TimeBalance(t, db, bruno.ID))
	assert.Equal(t, 0, testdb.CountTransactions(t, db))
}

func TestProcessPaymentRequest_NotFoundAndBadAction(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})

	_, err := svc.ProcessPaymentRequest(ctx, uuid.New(), UserActor(anna.ID), ActionApprove)
	require.ErrorIs(t, err, ErrPaymentRequestNotFound)

	_, err = svc.ProcessPaymentRequest(ctx, uuid.New(), UserActor(anna.ID), RequestAction("SHRED"))
	require.Error(t, err)
}

func TestCancelPaymentRequest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	anna := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	bruno := testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})

	req, err := svc.CreatePaymentRequest(ctx, anna.UserCode, bruno.UserCode, 30, decimal.Zero, "")
	require.NoError(t, err)

	// The debtor may not cancel.
	_, err = svc.CancelPaymentRequest(ctx, req.ID, bruno.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	cancelled, err := svc.CancelPaymentRequest(ctx, req.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = svc.CancelPaymentRequest(ctx, req.ID, anna.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	// The status check comes before the identity check, matching
	// ProcessPaymentRequest: any actor sees InvalidStatus on a terminal
	// request, never Unauthorized.
	_, err = svc.CancelPaymentRequest(ctx, req.ID, bruno.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
