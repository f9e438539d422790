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
)

// RequestTravelCharges records a vendor claim for extra travel cost. A
// rejected claim may be submitted again.
func (s *service) RequestTravelCharges(ctx context.Context, id uint, amount float64, reason string) (*models.Booking, error) {
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount.WithMessage("travel charges must be positive")
	}
	reason = strings.TrimSpace(reason)
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	return s.update(ctx, "request travel charges", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.Status == models.BookingPending || b.Status == models.BookingCompleted {
			return apperr.ErrStateConflict.WithMessage("booking %d is %s", b.ID, b.Status)
		}
		switch b.TravelChargesRequest.Status {
		case models.StepNone, models.StepRejected:
		default:
			return apperr.ErrStateConflict.WithMessage("booking %d already has a travel charges claim", b.ID)
		}
		b.TravelChargesRequest = models.TravelChargesRequest{
			Status: models.StepPending,
			Amount: amount,
			Reason: reason,
		}
		fx.notify(notification.NewEvent(notification.EventTravelChargesRequested, b.UserParty(),
			"Travel charges requested",
			fmt.Sprintf("The vendor claimed %.2f travel charges for booking #%d", amount, b.ID)).ForBooking(b.ID))
		return nil
	})
}

// ApproveTravelCharges approves a pending claim and credits it to the vendor.
func (s *service) ApproveTravelCharges(ctx context.Context, id, adminID uint) (*models.Booking, error) {
	return s.update(ctx, "approve travel charges", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		req := &b.TravelChargesRequest
		switch req.Status {
		case models.StepPending:
		case models.StepApproved:
			return apperr.ErrAlreadyProcessed.WithMessage("travel charges of booking %d are already approved", b.ID)
		default:
			return apperr.ErrStateConflict.WithMessage("booking %d has no pending travel charges claim", b.ID)
		}

		now := time.Now()
		req.Status = models.StepApproved
		req.ReviewedBy = &adminID
		req.ReviewedAt = &now

		credit, err := s.post(ctx, b, fx, posting{
			step:   StepTravelCharges,
			party:  b.VendorParty(),
			amount: req.Amount,
			txType: models.TxTravelCharges,
			metadata: models.InstallmentMetadata(models.TxTravelCharges, models.InstallmentMeta{
				BookingID:  b.ID,
				BaseAmount: req.Amount,
				ApprovedBy: adminID,
			}),
		})
		if err != nil {
			return err
		}
		req.EntryID = credit.entryID
		req.Paid = credit.ok()
		req.Failed = !credit.ok()
		req.ErrorMessage = credit.message()
		req.FailedEntryID = credit.failedEntryID

		fx.notify(notification.NewEvent(notification.EventTravelChargesApproved, b.VendorParty(),
			"Travel charges approved",
			fmt.Sprintf("%.2f travel charges were approved for booking #%d", req.Amount, b.ID)).ForBooking(b.ID))
		return nil
	})
}

func (s *service) RejectTravelCharges(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	return s.update(ctx, "reject travel charges", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		req := &b.TravelChargesRequest
		if req.Status != models.StepPending {
			return apperr.ErrStateConflict.WithMessage("booking %d has no pending travel charges claim", b.ID)
		}
		now := time.Now()
		req.Status = models.StepRejected
		req.Reason = reason
		req.ReviewedBy = &adminID
		req.ReviewedAt = &now
		fx.notify(notification.NewEvent(notification.EventTravelChargesRejected, b.VendorParty(),
			"Travel charges rejected", reason).ForBooking(b.ID))
		return nil
	})
}
