package memory

import (
	"context"
	"sort"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
)

// BookingRepository is the in-memory repositories.BookingRepository.
type BookingRepository struct {
	s    *Store
	inTx bool
}

var _ repositories.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) ExecuteInTransaction(ctx context.Context, fn func(repositories.BookingRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	s := r.s
	s.bookingMu.Lock()
	defer s.bookingMu.Unlock()

	snapshot, nextID := copyMap(s.bookings), s.nextBookingID
	if err := fn(&BookingRepository{s: s, inTx: true}); err != nil {
		s.bookings, s.nextBookingID = snapshot, nextID
		return err
	}
	return nil
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	defer unlocker(&r.s.bookingMu, r.inTx)()
	if err := r.s.fault(OpCreateBooking); err != nil {
		return err
	}
	r.s.nextBookingID++
	now := r.s.now()
	b.ID = r.s.nextBookingID
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	defer unlocker(&r.s.bookingMu, r.inTx)()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperr.ErrBookingNotFound.WithMessage("booking %d not found", id)
	}
	return &b, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id uint) (*models.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	defer unlocker(&r.s.bookingMu, r.inTx)()
	if err := r.s.fault(OpUpdateBooking); err != nil {
		return err
	}
	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return apperr.ErrBookingNotFound.WithMessage("booking %d not found", b.ID)
	}
	if stored.Version != b.Version {
		return repositories.ErrVersionConflict
	}
	b.Version++
	b.UpdatedAt = r.s.now()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter repositories.BookingFilter) ([]models.Booking, int64, error) {
	defer unlocker(&r.s.bookingMu, r.inTx)()
	var list []models.Booking
	for _, b := range r.s.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.VendorID != 0 && b.VendorID != filter.VendorID {
			continue
		}
		if filter.UserID != 0 && b.UserID != filter.UserID {
			continue
		}
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return page(list, filter.Offset, filter.Limit), int64(len(list)), nil
}
