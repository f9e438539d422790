package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/repositories/memory"
	"borewell/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vendor    = models.Vendor(4)
	bookingID = uint(21)
	errDB     = errors.New("deadlock detected")
)

type recovery struct {
	bookingID, failedID, resultID uint
}

type listener struct {
	mu    sync.Mutex
	calls []recovery
}

func (l *listener) MarkRecovered(_ context.Context, bookingID, failedID, resultID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, recovery{bookingID, failedID, resultID})
	return nil
}

type fixture struct {
	store    *memory.Store
	ledger   ledger.Service
	svc      *service
	listener *listener
	clock    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.Ledger(), nil, ledger.Config{}, nil, nil)
	f := &fixture{
		store:    store,
		ledger:   ledgerSvc,
		listener: &listener{},
		clock:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(store.RetryJobs(), ledgerSvc, Config{Delay: time.Minute}, nil).(*service)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.AddListener(f.listener)
	return f
}

// failedCredit posts a report credit that fails inside the ledger unit and
// returns the FAILED entry.
func (f *fixture) failedCredit(t *testing.T) *models.LedgerEntry {
	t.Helper()
	f.store.FailNext(memory.OpUpdateAccount, errDB)
	res, err := f.ledger.Credit(context.Background(), ledger.Request{
		Party:     vendor,
		Amount:    1770,
		Type:      models.TxReportUpload,
		BookingID: &bookingID,
		Metadata: models.InstallmentMetadata(models.TxReportUpload, models.InstallmentMeta{
			BookingID: bookingID, BaseAmount: 1500, GST: 270,
		}),
	})
	require.ErrorIs(t, err, apperr.ErrLedgerWriteFailed)
	require.NotNil(t, res)
	require.Equal(t, models.EntryFailed, res.Entry.Status)
	return res.Entry
}

func (f *fixture) schedule(t *testing.T, entryID uint) *models.RetryJob {
	t.Helper()
	job, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		EntryID:   entryID,
		BookingID: &bookingID,
		Step:      "report_payout",
	})
	require.NoError(t, err)
	return job
}

func TestScheduleKeepsOneActiveJobPerEntry(t *testing.T) {
	f := setup(t)
	failed := f.failedCredit(t)

	first := f.schedule(t, failed.ID)
	assert.Equal(t, models.RetryQueued, first.Status)
	assert.Equal(t, DefaultMaxAttempts, first.MaxAttempts)
	assert.Equal(t, f.clock.Add(time.Minute), first.NextRunAt)

	second := f.schedule(t, failed.ID)
	assert.Equal(t, first.ID, second.ID)

	_, total, err := f.svc.List(context.Background(), repositories.RetryJobFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = f.svc.Schedule(context.Background(), ScheduleRequest{})
	assert.ErrorIs(t, err, apperr.ErrMissingField)
}

func TestExecuteRecoversEntry(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	failed := f.failedCredit(t)
	job := f.schedule(t, failed.ID)

	job, err := f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.ResultEntryID)

	account, err := f.ledger.Account(ctx, vendor)
	require.NoError(t, err)
	assert.Equal(t, 1770.0, account.Balance)

	require.Len(t, f.listener.calls, 1)
	assert.Equal(t, recovery{bookingID, failed.ID, *job.ResultEntryID}, f.listener.calls[0])

	_, err = f.svc.Execute(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestExecuteExhaustsAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	failed := f.failedCredit(t)
	job := f.schedule(t, failed.ID)

	for attempt := 1; attempt <= DefaultMaxAttempts; attempt++ {
		f.store.FailNext(memory.OpUpdateAccount, errDB)
		var err error
		job, err = f.svc.Execute(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, attempt, job.Attempts)
		assert.Contains(t, job.LastError, "deadlock detected")
		if attempt < DefaultMaxAttempts {
			assert.Equal(t, models.RetryQueued, job.Status)
			assert.Equal(t, f.clock.Add(time.Minute), job.NextRunAt)
		}
	}
	assert.Equal(t, models.RetryExhausted, job.Status)
	assert.Empty(t, f.listener.calls)

	_, err := f.svc.Execute(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	// The ledger entry is out of retries too, so a requeued job exhausts
	// on its first attempt.
	job, err = f.svc.Requeue(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetryQueued, job.Status)
	assert.Equal(t, 0, job.Attempts)

	job, err = f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetryExhausted, job.Status)
	assert.Contains(t, job.LastError, "retried 3 times")
}

func TestExecuteAbandonsNonRetryableEntry(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	res, err := f.ledger.Credit(ctx, ledger.Request{
		Party:    vendor,
		Amount:   500,
		Type:     models.TxSiteVisit,
		Metadata: models.InstallmentMetadata(models.TxSiteVisit, models.InstallmentMeta{BookingID: bookingID, BaseAmount: 500}),
	})
	require.NoError(t, err)

	job := f.schedule(t, res.Entry.ID)
	job, err = f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetryAbandoned, job.Status)
	assert.Equal(t, 1, job.Attempts)

	job, err = f.svc.Requeue(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock, job.NextRunAt)
}

func TestRequeueRejectsActiveJob(t *testing.T) {
	f := setup(t)
	job := f.schedule(t, f.failedCredit(t).ID)

	_, err := f.svc.Requeue(context.Background(), job.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	_, err = f.svc.Requeue(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrJobNotFound)
}

func TestExecuteRecordsRecoveryAfterLostOutcome(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	failed := f.failedCredit(t)
	job := f.schedule(t, failed.ID)

	f.store.FailNext(memory.OpUpdateJob, errDB)
	_, err := f.svc.Execute(ctx, job.ID)
	require.ErrorIs(t, err, errDB)
	assert.Empty(t, f.listener.calls)

	job, err = f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, job.Status)
	assert.Empty(t, job.LastError)
	require.NotNil(t, job.ResultEntryID)

	recovered, err := f.ledger.RecoveredBy(ctx, failed.ID)
	require.NoError(t, err)
	require.NotNil(t, recovered)
	assert.Equal(t, recovered.ID, *job.ResultEntryID)

	require.Len(t, f.listener.calls, 1)
	assert.Equal(t, recovery{bookingID, failed.ID, recovered.ID}, f.listener.calls[0])

	account, err := f.ledger.Account(ctx, vendor)
	require.NoError(t, err)
	assert.Equal(t, 1770.0, account.Balance)
}

func TestRequeueSucceededJobAnnouncesAgain(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	failed := f.failedCredit(t)
	job := f.schedule(t, failed.ID)

	job, err := f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, models.RetrySucceeded, job.Status)
	first := *job.ResultEntryID

	job, err = f.svc.Requeue(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetryQueued, job.Status)

	job, err = f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, job.Status)
	assert.Equal(t, first, *job.ResultEntryID)

	require.Len(t, f.listener.calls, 2)
	assert.Equal(t, f.listener.calls[0], f.listener.calls[1])

	account, err := f.ledger.Account(ctx, vendor)
	require.NoError(t, err)
	assert.Equal(t, 1770.0, account.Balance)
}

func TestClaimDueReclaimsExpiredLease(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	job := f.schedule(t, f.failedCredit(t).ID)

	f.clock = f.clock.Add(2 * time.Minute)
	claimed, err := f.svc.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, job.ID, claimed[0].ID)
	assert.Equal(t, models.RetryRunning, claimed[0].Status)

	// Still leased: neither the worker nor an operator may take it.
	f.clock = f.clock.Add(DefaultLease / 2)
	claimed, err = f.svc.ClaimDue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
	_, err = f.svc.Requeue(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	f.clock = f.clock.Add(DefaultLease)
	claimed, err = f.svc.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, job.ID, claimed[0].ID)

	done, err := f.svc.Execute(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, done.Status)
}

func TestRequeueAcceptsExpiredRunningJob(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	job := f.schedule(t, f.failedCredit(t).ID)

	f.clock = f.clock.Add(2 * time.Minute)
	_, err := f.svc.ClaimDue(ctx, 10)
	require.NoError(t, err)

	f.clock = f.clock.Add(DefaultLease + time.Second)
	job, err = f.svc.Requeue(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetryQueued, job.Status)
	assert.Equal(t, f.clock, job.NextRunAt)
}
