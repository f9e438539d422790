// Package retry runs deferred retries of FAILED ledger entries as
// persistent jobs, so operators can see what is pending, exhausted or
// abandoned and re-trigger it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/logger"
	"borewell/internal/models"
	"borewell/internal/repositories"

	"go.uber.org/zap"
)

// Service manages retry jobs.
type Service interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*models.RetryJob, error)
	Execute(ctx context.Context, jobID uint) (*models.RetryJob, error)
	Requeue(ctx context.Context, jobID uint) (*models.RetryJob, error)
	ClaimDue(ctx context.Context, limit int) ([]models.RetryJob, error)
	Get(ctx context.Context, jobID uint) (*models.RetryJob, error)
	List(ctx context.Context, filter repositories.RetryJobFilter) ([]models.RetryJob, int64, error)
	AddListener(l RecoveryListener)
}

type service struct {
	repo   repositories.RetryJobRepository
	ledger Ledger
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	listeners []RecoveryListener
}

// NewService creates the retry job service.
func NewService(repo repositories.RetryJobRepository, ledgerSvc Ledger, config Config, log *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger is required")
	}
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Lease <= 0 {
		config.Lease = DefaultLease
	}
	return &service{
		repo:   repo,
		ledger: ledgerSvc,
		config: config,
		logger: logger.OrNop(log).Named("retry"),
		now:    time.Now,
	}
}

func (s *service) AddListener(l RecoveryListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Schedule queues a retry of req.EntryID. An entry has at most one active
// job; scheduling it again returns that job.
func (s *service) Schedule(ctx context.Context, req ScheduleRequest) (*models.RetryJob, error) {
	if req.EntryID == 0 {
		return nil, apperr.ErrMissingField.WithMessage("ledger entry id is required")
	}
	active, err := s.repo.FindActiveByEntry(ctx, req.EntryID)
	if err != nil {
		return nil, fmt.Errorf("schedule retry: %w", err)
	}
	if active != nil {
		return active, nil
	}

	job := &models.RetryJob{
		LedgerEntryID: req.EntryID,
		BookingID:     req.BookingID,
		Step:          req.Step,
		Status:        models.RetryQueued,
		MaxAttempts:   s.config.MaxAttempts,
		NextRunAt:     s.now().Add(s.config.Delay),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("schedule retry: %w", err)
	}
	s.logger.Info("retry scheduled",
		zap.Uint("job_id", job.ID),
		zap.Uint("entry_id", req.EntryID),
		zap.String("step", req.Step),
		zap.Time("next_run_at", job.NextRunAt))
	return job, nil
}

// Execute runs one attempt of an active job and records the outcome on it.
// The ledger error, if any, is kept in LastError rather than returned.
func (s *service) Execute(ctx context.Context, jobID uint) (*models.RetryJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Active() {
		return nil, apperr.ErrStateConflict.WithMessage("retry job %d is %s", job.ID, job.Status)
	}

	var result *models.LedgerEntry
	res, retryErr := s.ledger.Retry(ctx, job.LedgerEntryID)
	if retryErr == nil {
		result = res.Entry
	} else if errors.Is(retryErr, apperr.ErrAlreadyRecovered) {
		// An earlier attempt posted but its outcome was never recorded.
		recovered, err := s.ledger.RecoveredBy(ctx, job.LedgerEntryID)
		if err != nil {
			return nil, fmt.Errorf("find recovering entry: %w", err)
		}
		if recovered != nil {
			result, retryErr = recovered, nil
		}
	}
	job.Attempts++

	switch {
	case retryErr == nil:
		job.Status = models.RetrySucceeded
		job.ResultEntryID = &result.ID
		job.LastError = ""
	case errors.Is(retryErr, apperr.ErrRetryLimitExceeded):
		job.Status = models.RetryExhausted
		job.LastError = retryErr.Error()
	case errors.Is(retryErr, apperr.ErrNotRetryable),
		errors.Is(retryErr, apperr.ErrAlreadyRecovered),
		errors.Is(retryErr, apperr.ErrEntryNotFound):
		job.Status = models.RetryAbandoned
		job.LastError = retryErr.Error()
	default:
		job.LastError = retryErr.Error()
		if job.Attempts >= job.MaxAttempts {
			job.Status = models.RetryExhausted
		} else {
			job.Status = models.RetryQueued
			job.NextRunAt = s.now().Add(s.config.Delay)
		}
	}

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("record retry outcome: %w", err)
	}

	fields := []zap.Field{
		zap.Uint("job_id", job.ID),
		zap.Uint("entry_id", job.LedgerEntryID),
		zap.Int("attempt", job.Attempts),
		zap.String("status", string(job.Status)),
	}
	if retryErr != nil {
		s.logger.Warn("retry attempt failed", append(fields, zap.Error(retryErr))...)
		return job, nil
	}
	s.logger.Info("retry succeeded", append(fields, zap.Uint("result_entry_id", result.ID))...)
	s.notifyRecovered(ctx, job)
	return job, nil
}

func (s *service) notifyRecovered(ctx context.Context, job *models.RetryJob) {
	if job.BookingID == nil || job.ResultEntryID == nil {
		return
	}
	s.mu.RLock()
	listeners := append([]RecoveryListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		if err := l.MarkRecovered(ctx, *job.BookingID, job.LedgerEntryID, *job.ResultEntryID); err != nil {
			s.logger.Warn("recovery listener failed",
				zap.Uint("job_id", job.ID),
				zap.Uint("booking_id", *job.BookingID),
				zap.Error(err))
		}
	}
}

// Requeue puts a job back in the queue with a fresh attempt budget. It
// accepts EXHAUSTED and ABANDONED jobs, RUNNING jobs whose lease ran out,
// and SUCCEEDED booking jobs so their recovery is announced again.
func (s *service) Requeue(ctx context.Context, jobID uint) (*models.RetryJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !s.requeueable(job) {
		return nil, apperr.ErrStateConflict.WithMessage("retry job %d is %s", job.ID, job.Status)
	}
	job.Status = models.RetryQueued
	job.Attempts = 0
	job.NextRunAt = s.now()
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("requeue retry job: %w", err)
	}
	s.logger.Info("retry job requeued", zap.Uint("job_id", job.ID))
	return job, nil
}

func (s *service) requeueable(job *models.RetryJob) bool {
	switch job.Status {
	case models.RetryExhausted, models.RetryAbandoned:
		return true
	case models.RetrySucceeded:
		return job.BookingID != nil
	case models.RetryRunning:
		return !job.UpdatedAt.After(s.now().Add(-s.config.Lease))
	}
	return false
}

// ClaimDue claims QUEUED jobs that are due and RUNNING jobs whose lease
// expired, which were left behind by a worker that stopped mid-attempt.
func (s *service) ClaimDue(ctx context.Context, limit int) ([]models.RetryJob, error) {
	now := s.now()
	return s.repo.ClaimDue(ctx, now, now.Add(-s.config.Lease), limit)
}

func (s *service) Get(ctx context.Context, jobID uint) (*models.RetryJob, error) {
	return s.repo.GetByID(ctx, jobID)
}

func (s *service) List(ctx context.Context, filter repositories.RetryJobFilter) ([]models.RetryJob, int64, error) {
	return s.repo.List(ctx, filter)
}
