package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/services/notification"
)

// UploadFieldResult records the borewell outcome reported by the user. It
// may be replaced until an admin approves it.
func (s *service) UploadFieldResult(ctx context.Context, id uint, outcome models.Outcome) (*models.Booking, error) {
	if !outcome.Valid() {
		return nil, apperr.ErrInvalidOutcome.WithMessage("unknown outcome %q", outcome)
	}
	return s.update(ctx, "upload field result", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.Report.Status != models.ReviewApproved {
			return apperr.ErrReportNotApproved.WithMessage("report of booking %d is not approved", b.ID)
		}
		if b.FieldResult.Status == models.ReviewApproved {
			return apperr.ErrAlreadyProcessed.WithMessage("field result of booking %d is already approved", b.ID)
		}

		now := time.Now()
		b.FieldResult = models.FieldResult{
			Status:     models.ReviewUploaded,
			Outcome:    outcome,
			UploadedAt: &now,
		}
		b.Status = models.BookingBorewellUploaded
		b.UserStatus = models.UserBorewellUploaded
		fx.notify(notification.NewEvent(notification.EventFieldResultUploaded, b.VendorParty(),
			"Field result uploaded",
			fmt.Sprintf("The user reported %s for booking #%d", outcome, b.ID)).ForBooking(b.ID))
		return nil
	})
}

// ApproveFieldResult approves the uploaded outcome and opens both sides of
// the final settlement.
func (s *service) ApproveFieldResult(ctx context.Context, id, adminID uint) (*models.Booking, error) {
	return s.update(ctx, "approve field result", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		switch b.FieldResult.Status {
		case models.ReviewUploaded:
		case models.ReviewApproved:
			return apperr.ErrAlreadyProcessed.WithMessage("field result of booking %d is already approved", b.ID)
		default:
			return apperr.ErrStateConflict.WithMessage("booking %d has no field result awaiting review", b.ID)
		}

		now := time.Now()
		b.FieldResult.Status = models.ReviewApproved
		b.FieldResult.ApprovedAt = &now
		b.FieldResult.ApprovedBy = &adminID
		b.FieldResult.RejectionReason = ""
		b.FinalSettlement = models.FinalSettlement{
			Status:         models.StepPending,
			BorewellResult: b.FieldResult.Outcome,
		}
		b.VendorSettlement = models.VendorSettlement{Status: models.StepPending}
		b.Status = models.BookingAdminApproved
		b.UserStatus = models.UserAdminApproved
		b.VendorStatus = models.VendorApproved

		for _, party := range []models.PartyRef{b.UserParty(), b.VendorParty()} {
			fx.notify(notification.NewEvent(notification.EventFieldResultApproved, party,
				"Field result approved",
				fmt.Sprintf("The %s outcome of booking #%d was approved", b.FieldResult.Outcome, b.ID)).ForBooking(b.ID))
		}
		return nil
	})
}

func (s *service) RejectFieldResult(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	return s.update(ctx, "reject field result", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.FieldResult.Status != models.ReviewUploaded {
			return apperr.ErrStateConflict.WithMessage("booking %d has no field result awaiting review", b.ID)
		}
		b.FieldResult.Status = models.ReviewRejected
		b.FieldResult.RejectionReason = reason
		b.Status = models.BookingReportUploaded
		b.UserStatus = models.UserReportReady
		fx.notify(notification.NewEvent(notification.EventFieldResultRejected, b.UserParty(),
			"Field result rejected", reason).ForBooking(b.ID))
		return nil
	})
}
