package repositories

import (
	"context"
	"errors"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) ExecuteInTransaction(ctx context.Context, fn func(BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&bookingRepository{db: tx})
	})
}

func (r *bookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id uint) (*models.Booking, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *bookingRepository) find(db *gorm.DB, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrBookingNotFound.WithMessage("booking %d not found", id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *models.Booking) error {
	expected := b.Version
	b.Version = expected + 1
	result := r.db.WithContext(ctx).
		Model(b).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(b)
	if result.Error != nil {
		b.Version = expected
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		b.Version = expected
		return ErrVersionConflict
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VendorID != 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var list []models.Booking
	query = query.Order("id DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return list, total, nil
}
