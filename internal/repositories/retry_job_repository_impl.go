package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type retryJobRepository struct {
	db *gorm.DB
}

func NewRetryJobRepository(db *gorm.DB) RetryJobRepository {
	return &retryJobRepository{db: db}
}

func (r *retryJobRepository) Create(ctx context.Context, job *models.RetryJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create retry job: %w", err)
	}
	return nil
}

func (r *retryJobRepository) GetByID(ctx context.Context, id uint) (*models.RetryJob, error) {
	var job models.RetryJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrJobNotFound.WithMessage("retry job %d not found", id)
		}
		return nil, fmt.Errorf("failed to get retry job: %w", err)
	}
	return &job, nil
}

func (r *retryJobRepository) Update(ctx context.Context, job *models.RetryJob) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update retry job: %w", err)
	}
	return nil
}

func (r *retryJobRepository) FindActiveByEntry(ctx context.Context, entryID uint) (*models.RetryJob, error) {
	var jobs []models.RetryJob
	err := r.db.WithContext(ctx).
		Where("ledger_entry_id = ? AND status IN ?", entryID,
			[]models.RetryJobStatus{models.RetryQueued, models.RetryRunning}).
		Limit(1).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find retry job: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

func (r *retryJobRepository) ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.RetryJob, error) {
	var jobs []models.RetryJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND next_run_at <= ?) OR (status = ? AND updated_at <= ?)",
				models.RetryQueued, now, models.RetryRunning, staleBefore).
			Order("next_run_at").
			Limit(limit).
			Find(&jobs).Error
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]uint, len(jobs))
		for i := range jobs {
			ids[i] = jobs[i].ID
			jobs[i].Status = models.RetryRunning
			jobs[i].UpdatedAt = now
		}
		return tx.Model(&models.RetryJob{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": models.RetryRunning, "updated_at": now}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim retry jobs: %w", err)
	}
	return jobs, nil
}

func (r *retryJobRepository) List(ctx context.Context, filter RetryJobFilter) ([]models.RetryJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RetryJob{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BookingID != nil {
		query = query.Where("booking_id = ?", *filter.BookingID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count retry jobs: %w", err)
	}

	var jobs []models.RetryJob
	query = query.Order("id DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list retry jobs: %w", err)
	}
	return jobs, total, nil
}
