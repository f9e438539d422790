// Package settlement drives a booking through its report, field-result and
// final settlement stages and posts the resulting money movements to the
// wallet ledger.
//
// A ledger failure inside a step never fails the step. The booking records
// what was intended, flags the affected sub-field and a retry job is
// queued; MarkRecovered clears the flag once the retry succeeds.
package settlement

import (
	"context"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/logger"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/fee"
	"borewell/internal/services/notification"
	"borewell/internal/services/retry"

	"go.uber.org/zap"
)

// Service defines the booking settlement orchestrator
type Service interface {
	// Booking progress
	CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error)
	AcceptBooking(ctx context.Context, id uint) (*models.Booking, error)
	RecordSiteVisit(ctx context.Context, id uint) (*models.Booking, error)
	RecordReportUpload(ctx context.Context, id uint, url string) (*models.Booking, error)

	// Report stage
	ApproveReport(ctx context.Context, id, adminID uint) (*models.Booking, error)
	RejectReport(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error)
	PayFirstInstallment(ctx context.Context, id, adminID uint, reference string) (*models.Booking, error)

	// Travel charges
	RequestTravelCharges(ctx context.Context, id uint, amount float64, reason string) (*models.Booking, error)
	ApproveTravelCharges(ctx context.Context, id, adminID uint) (*models.Booking, error)
	RejectTravelCharges(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error)

	// Field result
	UploadFieldResult(ctx context.Context, id uint, outcome models.Outcome) (*models.Booking, error)
	ApproveFieldResult(ctx context.Context, id, adminID uint) (*models.Booking, error)
	RejectFieldResult(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error)

	// Final settlement
	ProcessVendorSettlement(ctx context.Context, id, adminID uint, in VendorSettlementInput) (*models.Booking, error)
	ProcessUserSettlement(ctx context.Context, id, adminID uint, in UserSettlementInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, id, adminID uint, in CancelInput) (*models.Booking, error)

	// MarkRecovered implements retry.RecoveryListener.
	MarkRecovered(ctx context.Context, bookingID, failedEntryID, resultEntryID uint) error

	Get(ctx context.Context, id uint) (*models.Booking, error)
	List(ctx context.Context, filter repositories.BookingFilter) ([]models.Booking, int64, error)
}

type service struct {
	bookings repositories.BookingRepository
	ledger   Ledger
	fees     *fee.Calculator
	notifier notification.Notifier
	retries  RetryScheduler
	logger   *zap.Logger
}

var _ retry.RecoveryListener = (*service)(nil)

// NewService creates the orchestrator. notifier, retries and log are optional.
func NewService(
	bookings repositories.BookingRepository,
	ledgerSvc Ledger,
	fees *fee.Calculator,
	notifier notification.Notifier,
	retries RetryScheduler,
	log *zap.Logger,
) Service {
	if bookings == nil {
		panic("bookings is required")
	}
	if ledgerSvc == nil {
		panic("ledger is required")
	}
	if fees == nil {
		fees = fee.NewCalculator(fee.Config{})
	}
	if notifier == nil {
		notifier = notification.Noop{}
	}
	l := logger.OrNop(log).Named("settlement")
	if retries == nil {
		retries = unscheduled{logger: l}
	}

	return &service{
		bookings: bookings,
		ledger:   ledgerSvc,
		fees:     fees,
		notifier: notifier,
		retries:  retries,
		logger:   l,
	}
}

// effects are collected while a booking is locked and run after commit.
type effects struct {
	events  []notification.Event
	retries []retry.ScheduleRequest
}

func (fx *effects) notify(event notification.Event) {
	fx.events = append(fx.events, event)
}

// update locks booking id, applies fn and saves it. Nothing is saved when
// fn fails; notifications and retry jobs are only sent once the booking
// is committed.
func (s *service) update(ctx context.Context, op string, id uint, fn func(b *models.Booking, fx *effects) error) (*models.Booking, error) {
	var (
		updated *models.Booking
		fx      effects
	)
	err := s.bookings.ExecuteInTransaction(ctx, func(tx repositories.BookingRepository) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(b, &fx); err != nil {
			return err
		}
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("booking updated",
		zap.String("op", op),
		zap.Uint("booking_id", id),
		zap.String("status", string(updated.Status)),
		zap.String("user_status", string(updated.UserStatus)),
		zap.String("vendor_status", string(updated.VendorStatus)))
	s.apply(ctx, &fx)
	return updated, nil
}

func (s *service) apply(ctx context.Context, fx *effects) {
	for _, req := range fx.retries {
		if _, err := s.retries.Schedule(ctx, req); err != nil {
			s.logger.Error("failed to schedule ledger retry",
				zap.Uint("entry_id", req.EntryID),
				zap.String("step", req.Step),
				zap.Error(err))
		}
	}
	for _, event := range fx.events {
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("notification failed",
				zap.String("type", event.Type),
				zap.Stringer("recipient", event.Recipient),
				zap.Error(err))
		}
	}
}

func (s *service) Get(ctx context.Context, id uint) (*models.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter repositories.BookingFilter) ([]models.Booking, int64, error) {
	return s.bookings.List(ctx, filter)
}

func requireOpen(b *models.Booking) error {
	if b.Status == models.BookingCancelled {
		return apperr.ErrStateConflict.WithMessage("booking %d is cancelled", b.ID)
	}
	return nil
}

func requireReason(reason string) error {
	if reason == "" {
		return apperr.ErrReasonRequired.WithMessage("a reason is required")
	}
	return nil
}

func requireAmount(amount float64, what string) error {
	if amount < 0 {
		return apperr.ErrInvalidAmount.WithMessage("%s must not be negative", what)
	}
	return nil
}

// unscheduled stands in when no retry scheduler is configured.
type unscheduled struct {
	logger *zap.Logger
}

func (u unscheduled) Schedule(_ context.Context, req retry.ScheduleRequest) (*models.RetryJob, error) {
	u.logger.Warn("no retry scheduler configured, failed entry needs manual retry",
		zap.Uint("entry_id", req.EntryID), zap.String("step", req.Step))
	return nil, nil
}
