package settlement

import (
	"context"
	"errors"
	"testing"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories/memory"
	"borewell/internal/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorSettlementWithIncentive(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.resultApproved(t, 10000, models.OutcomeSuccess)
	before := f.balance(t, b.VendorParty())

	b, err := f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Reward: 500})
	require.NoError(t, err)
	assert.Equal(t, 5500.0, b.VendorSettlement.Amount)
	assert.Equal(t, models.SettlementReward, b.VendorSettlement.SettlementType)
	assert.Equal(t, models.StepCompleted, b.VendorSettlement.Status)
	assert.Equal(t, 5500.0, f.balance(t, b.VendorParty())-before)

	rewards := f.entries(t, b.VendorParty(), models.TxFinalSettlementReward)
	require.Len(t, rewards, 1)
	assert.Equal(t, 5500.0, rewards[0].Amount)

	// The user side is still open, so the booking is not complete yet.
	assert.Equal(t, models.VendorFinalSettlementComplete, b.VendorStatus)
	assert.Equal(t, models.BookingFinalSettlement, b.Status)
	assert.Equal(t, models.StepInProgress, b.FinalSettlement.Status)

	_, err = f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Reward: 500})
	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)

	b, err = f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, b.Status)
	assert.Equal(t, models.UserCompleted, b.UserStatus)
	assert.Equal(t, models.VendorCompleted, b.VendorStatus)
	assert.Equal(t, models.StepCompleted, b.FinalSettlement.Status)
	assert.Contains(t, f.recorder.Types(), notification.EventBookingCompleted)
}

func TestUserSettlementRemitsOnFailedOutcome(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.resultApproved(t, 7000, models.OutcomeFailed)
	require.Equal(t, 3000.0, b.RemainingAmount)

	b, err := f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{Remittance: 3000})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, f.balance(t, b.UserParty()))
	assert.True(t, b.FinalSettlement.UserSettlementProcessed)
	assert.Equal(t, 3000.0, b.FinalSettlement.RemittanceAmount)
	require.NotNil(t, b.FinalSettlement.EntryID)

	assert.Equal(t, models.UserCompleted, b.UserStatus)
	assert.Equal(t, models.BookingFinalSettlement, b.Status, "vendor side still pending")

	_, err = f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{Remittance: 3000})
	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	assert.Equal(t, 3000.0, f.balance(t, b.UserParty()))

	b, err = f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Penalty: 1000})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, b.VendorSettlement.Amount)
	assert.Equal(t, models.SettlementPenalty, b.VendorSettlement.SettlementType)
	assert.Len(t, f.entries(t, b.VendorParty(), models.TxFinalSettlementPenalty), 1)
	assert.Equal(t, models.BookingCompleted, b.Status)
}

func TestPenaltyAboveInstallmentCreditsNothing(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.resultApproved(t, 0, models.OutcomeFailed)
	before := f.balance(t, b.VendorParty())

	b, err := f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Penalty: 6000})
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.VendorSettlement.Amount)
	assert.Nil(t, b.VendorSettlement.EntryID)
	assert.False(t, b.VendorSettlement.Failed)
	assert.Equal(t, before, f.balance(t, b.VendorParty()))
	assert.Empty(t, f.entries(t, b.VendorParty(), models.TxFinalSettlementPenalty))
	assert.Equal(t, models.VendorFinalSettlementComplete, b.VendorStatus)
}

func TestRewardPenaltyValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		outcome models.Outcome
		input   VendorSettlementInput
		want    error
	}{
		{"penalty on success", models.OutcomeSuccess, VendorSettlementInput{Penalty: 100}, apperr.ErrRewardPolarity},
		{"reward on failure", models.OutcomeFailed, VendorSettlementInput{Reward: 100}, apperr.ErrRewardPolarity},
		{"both set", models.OutcomeSuccess, VendorSettlementInput{Reward: 100, Penalty: 100}, apperr.ErrRewardAndPenalty},
		{"negative reward", models.OutcomeSuccess, VendorSettlementInput{Reward: -1}, apperr.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			b := f.resultApproved(t, 0, tt.outcome)
			balance := f.balance(t, b.VendorParty())

			_, err := f.svc.ProcessVendorSettlement(ctx, b.ID, admin, tt.input)
			assert.ErrorIs(t, err, tt.want)

			stored, err := f.svc.Get(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, b.Version, stored.Version)
			assert.Equal(t, models.StepPending, stored.VendorSettlement.Status)
			assert.Equal(t, balance, f.balance(t, b.VendorParty()))
		})
	}
}

func TestRemittanceValidation(t *testing.T) {
	ctx := context.Background()

	f := setup(t)
	b := f.resultApproved(t, 7000, models.OutcomeSuccess)
	_, err := f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{Remittance: 100})
	assert.ErrorIs(t, err, apperr.ErrRemittanceInvalid)

	f = setup(t)
	b = f.resultApproved(t, 7000, models.OutcomeFailed)
	_, err = f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{Remittance: 3000.01})
	assert.ErrorIs(t, err, apperr.ErrRemittanceInvalid)
	_, err = f.svc.ProcessUserSettlement(ctx, b.ID, admin, UserSettlementInput{Remittance: -5})
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.FinalSettlement.UserSettlementProcessed)
}

func TestLedgerFailureDoesNotFailApproval(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.reportUploaded(t, 0)

	f.store.FailNext(memory.OpUpdateAccount, errDB)
	b, err := f.svc.ApproveReport(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, b.Report.Status)
	assert.Equal(t, models.VendorAwaitingPayment, b.VendorStatus)
	assert.True(t, b.ReportPayout.Failed)
	assert.Contains(t, b.ReportPayout.ErrorMessage, errDB.Error())
	require.NotNil(t, b.ReportPayout.FailedEntryID)
	assert.Nil(t, b.ReportPayout.CreditEntryID)
	assert.Nil(t, b.ReportPayout.FeeEntryID, "fee waits for the credit")
	assert.Equal(t, 0.0, f.balance(t, b.VendorParty()))
	assert.Contains(t, f.recorder.Types(), notification.EventSettlementPaymentFailed)

	job, err := f.store.RetryJobs().FindActiveByEntry(ctx, *b.ReportPayout.FailedEntryID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, StepReportCredit, job.Step)
	assert.Equal(t, models.RetryQueued, job.Status)

	job, err = f.retries.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, job.Status)

	b, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, b.ReportPayout.Failed)
	assert.Empty(t, b.ReportPayout.ErrorMessage)
	assert.Equal(t, job.ResultEntryID, b.ReportPayout.CreditEntryID)
	require.NotNil(t, b.ReportPayout.FeeEntryID)
	assert.Equal(t, models.StepCompleted, b.ReportPayout.Status)
	assert.Equal(t, 5150.0, f.balance(t, b.VendorParty()))
}

func TestVendorSettlementFailureIsRecoverable(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.resultApproved(t, 0, models.OutcomeSuccess)
	before := f.balance(t, b.VendorParty())

	f.store.FailNext(memory.OpUpdateAccount, errDB)
	b, err := f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Reward: 500})
	require.NoError(t, err)
	assert.True(t, b.VendorSettlement.Failed)
	assert.Equal(t, models.StepCompleted, b.VendorSettlement.Status)
	assert.Equal(t, models.VendorFinalSettlementComplete, b.VendorStatus)
	assert.Equal(t, before, f.balance(t, b.VendorParty()))

	job, err := f.store.RetryJobs().FindActiveByEntry(ctx, *b.VendorSettlement.FailedEntryID)
	require.NoError(t, err)
	require.NotNil(t, job)
	_, err = f.retries.Execute(ctx, job.ID)
	require.NoError(t, err)

	b, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, b.VendorSettlement.Failed)
	require.NotNil(t, b.VendorSettlement.EntryID)
	assert.Equal(t, 5500.0, f.balance(t, b.VendorParty())-before)
}

func TestRerunAfterBookingWriteFailureDoesNotPayTwice(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	b := f.resultApproved(t, 0, models.OutcomeSuccess)
	before := f.balance(t, b.VendorParty())

	f.store.FailNext(memory.OpUpdateBooking, errDB)
	_, err := f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Reward: 500})
	require.ErrorIs(t, err, errDB)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPending, stored.VendorSettlement.Status)

	b, err = f.svc.ProcessVendorSettlement(ctx, b.ID, admin, VendorSettlementInput{Reward: 500})
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, b.VendorSettlement.Status)
	assert.Len(t, f.entries(t, b.VendorParty(), models.TxFinalSettlementReward), 1)
	assert.Equal(t, 5500.0, f.balance(t, b.VendorParty())-before)
}

func TestMarkRecoveredUnknownEntry(t *testing.T) {
	f := setup(t)
	b := f.resultApproved(t, 0, models.OutcomeSuccess)
	err := f.svc.MarkRecovered(context.Background(), b.ID, 9999, 10000)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notification.Event) error {
	return errors.New("broker unavailable")
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	f := setupWithNotifier(t, failingNotifier{})
	b := f.resultApproved(t, 0, models.OutcomeSuccess)

	b, err := f.svc.ProcessVendorSettlement(context.Background(), b.ID, admin, VendorSettlementInput{})
	require.NoError(t, err)
	assert.Equal(t, models.VendorFinalSettlementComplete, b.VendorStatus)
}
