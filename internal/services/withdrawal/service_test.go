package withdrawal

import (
	"context"
	"errors"
	"testing"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/repositories/memory"
	"borewell/internal/services/ledger"
	"borewell/internal/services/notification"
	"borewell/internal/services/payout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendor = models.Vendor(11)

type failingGateway struct{}

func (failingGateway) CreatePayout(context.Context, payout.Request) (*payout.Result, error) {
	return nil, errors.New("destination account closed")
}

type fixture struct {
	store    *memory.Store
	ledger   ledger.Service
	recorder *notification.Recorder
	svc      Service
}

func setup(t *testing.T, gateway payout.Gateway) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.Ledger(), nil, ledger.Config{}, nil, nil)
	recorder := notification.NewRecorder()
	svc := NewService(store.Withdrawals(), ledgerSvc, gateway, recorder, Config{}, nil)
	return &fixture{store: store, ledger: ledgerSvc, recorder: recorder, svc: svc}
}

func (f *fixture) fund(t *testing.T, amount float64) {
	t.Helper()
	_, err := f.ledger.Credit(context.Background(), ledger.Request{
		Party:    vendor,
		Amount:   amount,
		Type:     models.TxSiteVisit,
		Metadata: models.InstallmentMetadata(models.TxSiteVisit, models.InstallmentMeta{BookingID: 1, BaseAmount: amount}),
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T) float64 {
	t.Helper()
	account, err := f.ledger.Account(context.Background(), vendor)
	require.NoError(t, err)
	return account.Balance
}

func processRequest() ProcessRequest {
	return ProcessRequest{TransactionReference: "UTR-889", PaymentMethod: "bank_transfer"}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum", func(t *testing.T) {
		f := setup(t, nil)
		f.fund(t, 800)
		_, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 900})
		assert.ErrorIs(t, err, apperr.ErrBelowMinimum)
	})

	t.Run("above balance", func(t *testing.T) {
		f := setup(t, nil)
		f.fund(t, 1500)
		_, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
		assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	})

	t.Run("no wallet yet", func(t *testing.T) {
		f := setup(t, nil)
		_, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 1200})
		assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	})

	t.Run("invalid party", func(t *testing.T) {
		f := setup(t, nil)
		_, err := f.svc.Create(ctx, CreateRequest{Party: models.PartyRef{Type: "admin", ID: 1}, Amount: 1200})
		assert.ErrorIs(t, err, apperr.ErrInvalidParty)
	})
}

func TestCreateReservesWithoutMovingMoney(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)

	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000, Destination: "acct_123"})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, w.Status)
	require.NotNil(t, w.ReservationEntryID)
	assert.Equal(t, 5000.0, f.balance(t))

	reservation, err := f.ledger.Entry(ctx, *w.ReservationEntryID)
	require.NoError(t, err)
	assert.Equal(t, models.TxWithdrawalRequest, reservation.Type)
	assert.Equal(t, models.EntryPending, reservation.Status)
	assert.Equal(t, 0.0, reservation.Amount)
	assert.Equal(t, 2000.0, reservation.RequestedAmount)

	assert.Equal(t, []string{notification.EventWithdrawalCreated}, f.recorder.Types())
}

func TestCreateFailureLeavesNoReservation(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)

	boom := errors.New("connection refused")
	f.store.FailNext(memory.OpCreateWithdrawal, boom)
	_, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000, Destination: "acct_123"})
	require.ErrorIs(t, err, boom)

	_, total, err := f.ledger.Entries(ctx, vendor, repositories.EntryFilter{Type: models.TxWithdrawalRequest})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.recorder.Types())
}

func TestCreateKeepsReservationWhenLinkFails(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)

	f.store.FailNext(memory.OpUpdateWithdrawal, errors.New("connection reset"))
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000, Destination: "acct_123"})
	require.NoError(t, err)
	assert.Nil(t, w.ReservationEntryID)

	stored, err := f.svc.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, stored.Status)
	assert.Nil(t, stored.ReservationEntryID)

	reservation, err := f.ledger.FindWithdrawalEntry(ctx, w.ID, models.TxWithdrawalRequest, models.EntryPending)
	require.NoError(t, err)
	require.NotNil(t, reservation)
	assert.Equal(t, 2000.0, reservation.RequestedAmount)
	assert.Equal(t, 5000.0, f.balance(t))
}

func TestApproveAndProcess(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)

	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)

	w, err = f.svc.Approve(ctx, w.ID, 99, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, w.Status)
	require.NotNil(t, w.ApprovedBy)
	assert.Equal(t, uint(99), *w.ApprovedBy)
	assert.NotEmpty(t, w.PayoutReference)
	assert.Equal(t, 5000.0, f.balance(t))

	w, err = f.svc.Process(ctx, w.ID, 99, processRequest())
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalProcessed, w.Status)
	assert.Equal(t, "UTR-889", w.TransactionReference)
	require.NotNil(t, w.ProcessedEntryID)
	require.NotNil(t, w.PaymentDate)
	assert.Equal(t, 3000.0, f.balance(t))

	entry, err := f.ledger.Entry(ctx, *w.ProcessedEntryID)
	require.NoError(t, err)
	assert.Equal(t, models.TxWithdrawalProcessed, entry.Type)
	assert.Equal(t, -2000.0, entry.Amount)

	_, err = f.svc.Process(ctx, w.ID, 99, processRequest())
	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	assert.Equal(t, 3000.0, f.balance(t))

	assert.Equal(t, []string{
		notification.EventWithdrawalCreated,
		notification.EventWithdrawalApproved,
		notification.EventWithdrawalProcessed,
	}, f.recorder.Types())
}

func TestProcessRequiresConfirmationDetails(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, w.ID, 1, ProcessRequest{PaymentMethod: "upi"})
	assert.ErrorIs(t, err, apperr.ErrMissingField)
	_, err = f.svc.Process(ctx, w.ID, 1, ProcessRequest{TransactionReference: "UTR-1"})
	assert.ErrorIs(t, err, apperr.ErrMissingField)

	_, err = f.svc.Process(ctx, w.ID, 1, processRequest())
	assert.ErrorIs(t, err, apperr.ErrStateConflict, "pending requests must be approved first")
}

func TestProcessRechecksBalance(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 4000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, w.ID, 1, "")
	require.NoError(t, err)

	other, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 3000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, other.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, other.ID, 1, processRequest())
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, w.ID, 1, processRequest())
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	stored, err := f.svc.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, stored.Status)
	assert.Equal(t, 2000.0, f.balance(t))
}

func TestProcessDoesNotDebitTwice(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, w.ID, 1, "")
	require.NoError(t, err)

	f.store.FailNext(memory.OpUpdateWithdrawal, errors.New("connection reset"))
	_, err = f.svc.Process(ctx, w.ID, 1, processRequest())
	require.Error(t, err)
	assert.Equal(t, 3000.0, f.balance(t), "debit committed before the request update failed")

	w, err = f.svc.Process(ctx, w.ID, 1, processRequest())
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalProcessed, w.Status)
	assert.Equal(t, 3000.0, f.balance(t))

	debits, _, err := f.ledger.Entries(ctx, vendor, repositories.EntryFilter{
		Type:   models.TxWithdrawalProcessed,
		Status: models.EntrySuccess,
	})
	require.NoError(t, err)
	require.Len(t, debits, 1)
	assert.Equal(t, debits[0].ID, *w.ProcessedEntryID)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, w.ID, 1, "  ")
	assert.ErrorIs(t, err, apperr.ErrReasonRequired)

	w, err = f.svc.Reject(ctx, w.ID, 1, "bank details mismatch")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalRejected, w.Status)
	assert.Equal(t, "bank details mismatch", w.RejectionReason)
	assert.Equal(t, 5000.0, f.balance(t))

	markers, _, err := f.ledger.Entries(ctx, vendor, repositories.EntryFilter{Type: models.TxWithdrawalRejected})
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, 0.0, markers[0].Amount)

	_, err = f.svc.Approve(ctx, w.ID, 1, "")
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	_, err = f.svc.Reject(ctx, w.ID, 1, "again")
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestRejectApproved(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, w.ID, 1, "")
	require.NoError(t, err)

	w, err = f.svc.Reject(ctx, w.ID, 1, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalRejected, w.Status)

	_, err = f.svc.Process(ctx, w.ID, 1, processRequest())
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.Equal(t, 5000.0, f.balance(t))
}

func TestGatewayFailureKeepsApproval(t *testing.T) {
	ctx := context.Background()
	f := setup(t, failingGateway{})
	f.fund(t, 5000)
	w, err := f.svc.Create(ctx, CreateRequest{Party: vendor, Amount: 2000})
	require.NoError(t, err)

	w, err = f.svc.Approve(ctx, w.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, w.Status)
	assert.Empty(t, w.PayoutReference)
	assert.Equal(t, "destination account closed", w.PayoutDetails["error"])
}

func TestNotFound(t *testing.T) {
	f := setup(t, nil)
	_, err := f.svc.Approve(context.Background(), 404, 1, "")
	assert.ErrorIs(t, err, apperr.ErrWithdrawalNotFound)
}
