package repositories

import (
	"context"

	"borewell/internal/models"
)

// BookingRepository stores bookings and their settlement sub-state.
type BookingRepository interface {
	ExecuteInTransaction(ctx context.Context, fn func(BookingRepository) error) error
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Booking, error)
	// Update writes b if its stored version equals b.Version and bumps it.
	Update(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
}
