package settlement

import (
	"context"
	"testing"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTravelChargesFlow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.reportUploaded(t, 0)

	_, err := f.svc.RequestTravelCharges(ctx, b.ID, 0, "extra 40km")
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)

	b, err = f.svc.RequestTravelCharges(ctx, b.ID, 400, "extra 40km")
	require.NoError(t, err)
	assert.Equal(t, models.StepPending, b.TravelChargesRequest.Status)

	_, err = f.svc.RequestTravelCharges(ctx, b.ID, 100, "again")
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	_, err = f.svc.RejectTravelCharges(ctx, b.ID, admin, "")
	assert.ErrorIs(t, err, apperr.ErrReasonRequired)

	b, err = f.svc.ApproveTravelCharges(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StepApproved, b.TravelChargesRequest.Status)
	assert.True(t, b.TravelChargesRequest.Paid)
	require.NotNil(t, b.TravelChargesRequest.EntryID)
	assert.Equal(t, 400.0, f.balance(t, b.VendorParty()))
	assert.Equal(t, 10000.0, b.TotalAmount)

	_, err = f.svc.ApproveTravelCharges(ctx, b.ID, admin)
	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	assert.Equal(t, 400.0, f.balance(t, b.VendorParty()))
}

func TestRejectedTravelChargesCanBeClaimedAgain(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.reportUploaded(t, 0)

	_, err := f.svc.RequestTravelCharges(ctx, b.ID, 400, "extra 40km")
	require.NoError(t, err)
	b, err = f.svc.RejectTravelCharges(ctx, b.ID, admin, "route not approved")
	require.NoError(t, err)
	assert.Equal(t, models.StepRejected, b.TravelChargesRequest.Status)
	assert.Equal(t, 0.0, f.balance(t, b.VendorParty()))

	b, err = f.svc.RequestTravelCharges(ctx, b.ID, 250, "extra 25km")
	require.NoError(t, err)
	assert.Equal(t, 250.0, b.TravelChargesRequest.Amount)
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.reportUploaded(t, 2000)

	_, err := f.svc.CancelBooking(ctx, b.ID, admin, CancelInput{Reason: "user moved", Refund: 2500})
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	_, err = f.svc.CancelBooking(ctx, b.ID, admin, CancelInput{Refund: 100})
	assert.ErrorIs(t, err, apperr.ErrReasonRequired)

	b, err = f.svc.CancelBooking(ctx, b.ID, admin, CancelInput{Reason: "user moved", Refund: 2000})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Equal(t, models.UserCancelled, b.UserStatus)
	assert.Equal(t, models.VendorCancelled, b.VendorStatus)
	require.NotNil(t, b.Cancellation.EntryID)
	assert.Equal(t, 2000.0, f.balance(t, b.UserParty()))

	_, err = f.svc.ApproveReport(ctx, b.ID, admin)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	_, err = f.svc.CancelBooking(ctx, b.ID, admin, CancelInput{Reason: "again"})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.Equal(t, 0.0, f.balance(t, b.VendorParty()))
}

func TestCancelAfterFinalSettlementStarted(t *testing.T) {
	f := setup(t)
	b := f.resultApproved(t, 0, models.OutcomeSuccess)
	_, err := f.svc.CancelBooking(context.Background(), b.ID, admin, CancelInput{Reason: "late"})
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}
