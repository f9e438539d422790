package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/services/notification"
	"borewell/internal/utils"

	"go.uber.org/zap"
)

func (s *service) CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error) {
	if in.UserID == 0 || in.VendorID == 0 {
		return nil, apperr.ErrInvalidParty.WithMessage("booking needs a user and a vendor")
	}
	if in.BaseServiceFee <= 0 {
		return nil, apperr.ErrInvalidAmount.WithMessage("base service fee must be positive")
	}
	if err := requireAmount(in.TravelCharges, "travel charges"); err != nil {
		return nil, err
	}
	if err := requireAmount(in.PaidAmount, "paid amount"); err != nil {
		return nil, err
	}

	total := s.fees.BookingTotal(in.BaseServiceFee, in.TravelCharges)
	paid := utils.RoundMoney(in.PaidAmount)
	if paid > total {
		return nil, apperr.ErrInvalidAmount.WithMessage("paid amount %.2f exceeds the total of %.2f", paid, total)
	}

	b := &models.Booking{
		UserID:          in.UserID,
		VendorID:        in.VendorID,
		BaseServiceFee:  utils.RoundMoney(in.BaseServiceFee),
		TravelCharges:   utils.RoundMoney(in.TravelCharges),
		TotalAmount:     total,
		PaidAmount:      paid,
		RemainingAmount: utils.SubMoney(total, paid),
		Status:          models.BookingPending,
		UserStatus:      models.UserPending,
		VendorStatus:    models.VendorPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.Uint("booking_id", b.ID),
		zap.Uint("user_id", b.UserID),
		zap.Uint("vendor_id", b.VendorID),
		zap.Float64("total_amount", total))
	s.apply(ctx, &effects{events: []notification.Event{
		notification.NewEvent(notification.EventBookingCreated, b.VendorParty(),
			"New booking", fmt.Sprintf("Booking #%d is waiting for you", b.ID)).ForBooking(b.ID),
	}})
	return b, nil
}

func (s *service) AcceptBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.update(ctx, "accept booking", id, func(b *models.Booking, fx *effects) error {
		if b.Status != models.BookingPending {
			return apperr.ErrStateConflict.WithMessage("booking %d is %s, expected PENDING", b.ID, b.Status)
		}
		b.Status = models.BookingAccepted
		b.UserStatus = models.UserAssigned
		b.VendorStatus = models.VendorAccepted
		fx.notify(notification.NewEvent(notification.EventBookingCreated, b.UserParty(),
			"Vendor assigned", fmt.Sprintf("A vendor accepted booking #%d", b.ID)).ForBooking(b.ID))
		return nil
	})
}

func (s *service) RecordSiteVisit(ctx context.Context, id uint) (*models.Booking, error) {
	return s.update(ctx, "record site visit", id, func(b *models.Booking, fx *effects) error {
		if b.VendorStatus != models.VendorAccepted {
			return apperr.ErrStateConflict.WithMessage("booking %d vendor is %s, expected ACCEPTED", b.ID, b.VendorStatus)
		}
		b.Status = models.BookingVisited
		b.UserStatus = models.UserVisited
		b.VendorStatus = models.VendorVisited
		fx.notify(notification.NewEvent(notification.EventSiteVisited, b.UserParty(),
			"Site visited", fmt.Sprintf("The vendor visited the site for booking #%d", b.ID)).ForBooking(b.ID))
		return nil
	})
}

// RecordReportUpload stores the vendor's report. A rejected report may be
// uploaded again.
func (s *service) RecordReportUpload(ctx context.Context, id uint, url string) (*models.Booking, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperr.ErrMissingField.WithMessage("report url is required")
	}
	return s.update(ctx, "record report upload", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.VendorStatus != models.VendorVisited {
			return apperr.ErrStateConflict.WithMessage("booking %d vendor is %s, expected VISITED", b.ID, b.VendorStatus)
		}
		now := time.Now()
		b.Report = models.Report{Status: models.ReviewUploaded, URL: url, UploadedAt: &now}
		b.Status = models.BookingReportUploaded
		b.VendorStatus = models.VendorReportUploaded
		fx.notify(notification.NewEvent(notification.EventReportUploaded, b.UserParty(),
			"Report uploaded", fmt.Sprintf("The inspection report for booking #%d is under review", b.ID)).ForBooking(b.ID))
		return nil
	})
}
