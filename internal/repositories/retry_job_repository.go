package repositories

import (
	"context"
	"time"

	"borewell/internal/models"
)

// RetryJobRepository stores deferred ledger retry jobs.
type RetryJobRepository interface {
	Create(ctx context.Context, job *models.RetryJob) error
	GetByID(ctx context.Context, id uint) (*models.RetryJob, error)
	Update(ctx context.Context, job *models.RetryJob) error
	// FindActiveByEntry returns the QUEUED or RUNNING job for entryID, or nil.
	FindActiveByEntry(ctx context.Context, entryID uint) (*models.RetryJob, error)
	// ClaimDue marks up to limit jobs as RUNNING and returns them: QUEUED
	// jobs due at now, and RUNNING jobs last touched at or before
	// staleBefore. Concurrent claimers never receive the same job.
	ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.RetryJob, error)
	List(ctx context.Context, filter RetryJobFilter) ([]models.RetryJob, int64, error)
}
