package settlement

import (
	"context"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"go.uber.org/zap"
)

// MarkRecovered records that resultEntryID, a successful retry of
// failedEntryID, completed the step that failed. A recovered report credit
// also triggers the platform fee deduction that was held back.
func (s *service) MarkRecovered(ctx context.Context, bookingID, failedEntryID, resultEntryID uint) error {
	_, err := s.update(ctx, "mark recovered", bookingID, func(b *models.Booking, fx *effects) error {
		matches := func(id *uint) bool { return id != nil && *id == failedEntryID }

		switch {
		case matches(b.ReportPayout.FailedEntryID) && b.ReportPayout.CreditEntryID == nil:
			b.ReportPayout.CreditEntryID = &resultEntryID
			b.ReportPayout.ErrorMessage = ""
			if err := s.deductPlatformFee(ctx, b, fx); err != nil {
				return err
			}
			settleReportPayout(b, time.Now())

		case matches(b.ReportPayout.FeeFailedEntryID) && b.ReportPayout.FeeEntryID == nil:
			b.ReportPayout.FeeEntryID = &resultEntryID
			settleReportPayout(b, time.Now())

		case matches(b.TravelChargesRequest.FailedEntryID) && b.TravelChargesRequest.EntryID == nil:
			req := &b.TravelChargesRequest
			req.EntryID, req.Paid, req.Failed, req.ErrorMessage = &resultEntryID, true, false, ""

		case matches(b.VendorSettlement.FailedEntryID) && b.VendorSettlement.EntryID == nil:
			vs := &b.VendorSettlement
			vs.EntryID, vs.Failed, vs.ErrorMessage = &resultEntryID, false, ""

		case matches(b.FinalSettlement.FailedEntryID) && b.FinalSettlement.EntryID == nil:
			fs := &b.FinalSettlement
			fs.EntryID, fs.Failed, fs.ErrorMessage = &resultEntryID, false, ""

		case matches(b.Cancellation.FailedEntryID) && b.Cancellation.EntryID == nil:
			c := &b.Cancellation
			c.EntryID, c.Failed, c.ErrorMessage = &resultEntryID, false, ""

		default:
			return apperr.ErrStateConflict.WithMessage(
				"booking %d has no failed step for ledger entry %d", b.ID, failedEntryID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("settlement step recovered",
		zap.Uint("booking_id", bookingID),
		zap.Uint("failed_entry_id", failedEntryID),
		zap.Uint("result_entry_id", resultEntryID))
	return nil
}
