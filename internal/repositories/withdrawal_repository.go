package repositories

import (
	"context"

	"borewell/internal/models"
)

// WithdrawalRepository stores withdrawal requests.
type WithdrawalRepository interface {
	ExecuteInTransaction(ctx context.Context, fn func(WithdrawalRepository) error) error
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	GetForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	Update(ctx context.Context, w *models.WithdrawalRequest) error
	List(ctx context.Context, filter WithdrawalFilter) ([]models.WithdrawalRequest, int64, error)
}
