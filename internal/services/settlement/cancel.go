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

// CancelBooking cancels a booking whose final settlement has not started,
// refunding up to the amount the user paid.
func (s *service) CancelBooking(ctx context.Context, id, adminID uint, in CancelInput) (*models.Booking, error) {
	reason := strings.TrimSpace(in.Reason)
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	if err := requireAmount(in.Refund, "refund amount"); err != nil {
		return nil, err
	}
	refund := utils.RoundMoney(in.Refund)

	return s.update(ctx, "cancel booking", id, func(b *models.Booking, fx *effects) error {
		switch {
		case b.Status == models.BookingCancelled || b.Status == models.BookingCompleted:
			return apperr.ErrStateConflict.WithMessage("booking %d is %s", b.ID, b.Status)
		case b.FinalSettlement.Status != models.StepNone:
			return apperr.ErrStateConflict.WithMessage("final settlement of booking %d has started", b.ID)
		case refund > b.PaidAmount:
			return apperr.ErrInvalidAmount.WithMessage(
				"refund %.2f exceeds the paid amount of %.2f", refund, b.PaidAmount)
		}

		now := time.Now()
		b.Cancellation = models.Cancellation{
			Reason:       reason,
			RefundAmount: refund,
			CancelledAt:  &now,
			CancelledBy:  &adminID,
		}
		if refund > 0 {
			credit, err := s.post(ctx, b, fx, posting{
				step:   StepCancellationRefund,
				party:  b.UserParty(),
				amount: refund,
				txType: models.TxRefund,
				metadata: models.RefundMetadata(models.RefundMeta{
					BookingID:   b.ID,
					Reason:      reason,
					ProcessedBy: adminID,
				}),
			})
			if err != nil {
				return err
			}
			b.Cancellation.EntryID = credit.entryID
			b.Cancellation.Failed = !credit.ok()
			b.Cancellation.ErrorMessage = credit.message()
			b.Cancellation.FailedEntryID = credit.failedEntryID
		}

		b.Status = models.BookingCancelled
		b.UserStatus = models.UserCancelled
		b.VendorStatus = models.VendorCancelled
		for _, party := range []models.PartyRef{b.UserParty(), b.VendorParty()} {
			fx.notify(notification.NewEvent(notification.EventBookingCancelled, party,
				"Booking cancelled", fmt.Sprintf("Booking #%d was cancelled: %s", b.ID, reason)).ForBooking(b.ID))
		}
		return nil
	})
}
