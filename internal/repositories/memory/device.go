package memory

import (
	"context"

	"borewell/internal/models"
	"borewell/internal/repositories"
)

// DeviceRepository is the in-memory repositories.DeviceRepository.
type DeviceRepository struct {
	s *Store
}

var _ repositories.DeviceRepository = (*DeviceRepository)(nil)

func (r *DeviceRepository) DeviceToken(ctx context.Context, party models.PartyRef) (string, error) {
	r.s.deviceMu.Lock()
	defer r.s.deviceMu.Unlock()
	return r.s.devices[party], nil
}

func (r *DeviceRepository) SaveDevice(ctx context.Context, party models.PartyRef, token string) error {
	r.s.deviceMu.Lock()
	defer r.s.deviceMu.Unlock()
	r.s.devices[party] = token
	return nil
}
