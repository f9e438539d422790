package repositories

import (
	"context"
	"errors"
	"fmt"

	"borewell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository resolves push tokens for parties.
type DeviceRepository interface {
	// DeviceToken returns the party's push token, or "" when none is registered.
	DeviceToken(ctx context.Context, party models.PartyRef) (string, error)
	SaveDevice(ctx context.Context, party models.PartyRef, token string) error
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) DeviceToken(ctx context.Context, party models.PartyRef) (string, error) {
	var device models.PartyDevice
	err := r.db.WithContext(ctx).
		Where("party_type = ? AND party_id = ?", party.Type, party.ID).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get device token: %w", err)
	}
	return device.DeviceToken, nil
}

func (r *deviceRepository) SaveDevice(ctx context.Context, party models.PartyRef, token string) error {
	device := models.PartyDevice{PartyType: party.Type, PartyID: party.ID, DeviceToken: token}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "party_type"}, {Name: "party_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"device_token", "updated_at"}),
		}).
		Create(&device).Error
	if err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	return nil
}
