package memory

import (
	"context"
	"sort"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
)

// RetryJobRepository is the in-memory repositories.RetryJobRepository.
type RetryJobRepository struct {
	s *Store
}

var _ repositories.RetryJobRepository = (*RetryJobRepository)(nil)

func (r *RetryJobRepository) Create(ctx context.Context, job *models.RetryJob) error {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	if err := r.s.fault(OpCreateJob); err != nil {
		return err
	}
	r.s.nextJobID++
	now := r.s.now()
	job.ID = r.s.nextJobID
	job.CreatedAt, job.UpdatedAt = now, now
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *RetryJobRepository) GetByID(ctx context.Context, id uint) (*models.RetryJob, error) {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, apperr.ErrJobNotFound.WithMessage("retry job %d not found", id)
	}
	return &job, nil
}

func (r *RetryJobRepository) Update(ctx context.Context, job *models.RetryJob) error {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	if err := r.s.fault(OpUpdateJob); err != nil {
		return err
	}
	if _, ok := r.s.jobs[job.ID]; !ok {
		return apperr.ErrJobNotFound.WithMessage("retry job %d not found", job.ID)
	}
	job.UpdatedAt = r.s.now()
	r.s.jobs[job.ID] = *job
	return nil
}

func (r *RetryJobRepository) FindActiveByEntry(ctx context.Context, entryID uint) (*models.RetryJob, error) {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	for _, job := range r.s.jobs {
		if job.LedgerEntryID == entryID && job.Status.Active() {
			return &job, nil
		}
	}
	return nil, nil
}

func (r *RetryJobRepository) ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.RetryJob, error) {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	var due []models.RetryJob
	for _, job := range r.s.jobs {
		queued := job.Status == models.RetryQueued && !job.NextRunAt.After(now)
		stale := job.Status == models.RetryRunning && !job.UpdatedAt.After(staleBefore)
		if queued || stale {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextRunAt.Equal(due[j].NextRunAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextRunAt.Before(due[j].NextRunAt)
	})
	due = page(due, 0, limit)
	for i := range due {
		due[i].Status = models.RetryRunning
		due[i].UpdatedAt = now
		r.s.jobs[due[i].ID] = due[i]
	}
	return due, nil
}

func (r *RetryJobRepository) List(ctx context.Context, filter repositories.RetryJobFilter) ([]models.RetryJob, int64, error) {
	r.s.jobMu.Lock()
	defer r.s.jobMu.Unlock()
	var list []models.RetryJob
	for _, job := range r.s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.BookingID != nil && (job.BookingID == nil || *job.BookingID != *filter.BookingID) {
			continue
		}
		list = append(list, job)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return page(list, filter.Offset, filter.Limit), int64(len(list)), nil
}
