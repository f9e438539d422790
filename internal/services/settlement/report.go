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

// ApproveReport approves an uploaded report and credits the vendor's
// report-stage installment: base plus GST, less the platform fee.
func (s *service) ApproveReport(ctx context.Context, id, adminID uint) (*models.Booking, error) {
	return s.update(ctx, "approve report", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		switch b.Report.Status {
		case models.ReviewUploaded:
		case models.ReviewApproved:
			return apperr.ErrAlreadyProcessed.WithMessage("report of booking %d is already approved", b.ID)
		default:
			return apperr.ErrStateConflict.WithMessage("booking %d has no report awaiting review", b.ID)
		}

		installment := s.fees.InstallmentBase(b.TotalAmount)
		breakdown := s.fees.Calculate(installment)

		now := time.Now()
		b.Report.Status = models.ReviewApproved
		b.Report.ApprovedAt = &now
		b.Report.ApprovedBy = &adminID
		b.Report.RejectionReason = ""
		b.ReportPayout = models.ReportPayout{
			Amount:      breakdown.Gross(),
			PlatformFee: breakdown.PlatformFee,
			Status:      models.StepInProgress,
		}

		credit, err := s.post(ctx, b, fx, posting{
			step:   StepReportCredit,
			party:  b.VendorParty(),
			amount: breakdown.Gross(),
			txType: models.TxReportUpload,
			metadata: models.InstallmentMetadata(models.TxReportUpload, models.InstallmentMeta{
				BookingID:      b.ID,
				InstallmentPct: 50,
				BaseAmount:     breakdown.Base,
				GST:            breakdown.GST,
				ApprovedBy:     adminID,
			}),
		})
		if err != nil {
			return err
		}
		b.ReportPayout.CreditEntryID = credit.entryID
		b.ReportPayout.FailedEntryID = credit.failedEntryID
		b.ReportPayout.ErrorMessage = credit.message()

		// The fee is only deducted once the credit it comes out of is in.
		if credit.ok() {
			if err := s.deductPlatformFee(ctx, b, fx); err != nil {
				return err
			}
		}
		settleReportPayout(b, now)

		b.VendorStatus = models.VendorAwaitingPayment
		b.UserStatus = models.UserReportReady
		fx.notify(notification.NewEvent(notification.EventReportApproved, b.VendorParty(),
			"Report approved",
			fmt.Sprintf("%.2f was credited to your wallet for booking #%d", breakdown.VendorNet, b.ID)).ForBooking(b.ID))
		fx.notify(notification.NewEvent(notification.EventReportApproved, b.UserParty(),
			"Report ready", fmt.Sprintf("The inspection report for booking #%d is ready", b.ID)).ForBooking(b.ID))
		return nil
	})
}

func (s *service) deductPlatformFee(ctx context.Context, b *models.Booking, fx *effects) error {
	p := &b.ReportPayout
	if p.PlatformFee <= 0 || p.FeeEntryID != nil {
		return nil
	}
	debit, err := s.post(ctx, b, fx, posting{
		step:   StepReportFee,
		party:  b.VendorParty(),
		debit:  true,
		amount: p.PlatformFee,
		txType: models.TxPlatformFeeDeduction,
		metadata: models.PlatformFeeMetadata(models.PlatformFeeMeta{
			BookingID:  b.ID,
			FeeRate:    s.fees.PlatformFeeRate(),
			BaseAmount: s.fees.InstallmentBase(b.TotalAmount),
		}),
	})
	if err != nil {
		return err
	}
	p.FeeEntryID = debit.entryID
	p.FeeFailedEntryID = debit.failedEntryID
	if !debit.ok() {
		p.ErrorMessage = debit.message()
	}
	return nil
}

// settleReportPayout derives the payout's status and failed flag from the
// entries posted so far.
func settleReportPayout(b *models.Booking, now time.Time) {
	p := &b.ReportPayout
	done := p.CreditEntryID != nil && (p.FeeEntryID != nil || p.PlatformFee <= 0)
	p.Failed = !done
	if done {
		p.Status = models.StepCompleted
		p.ErrorMessage = ""
		if p.CreditedAt == nil {
			p.CreditedAt = &now
		}
		return
	}
	p.Status = models.StepInProgress
}

func (s *service) RejectReport(ctx context.Context, id, adminID uint, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	return s.update(ctx, "reject report", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.Report.Status != models.ReviewUploaded {
			return apperr.ErrStateConflict.WithMessage("booking %d has no report awaiting review", b.ID)
		}
		b.Report.Status = models.ReviewRejected
		b.Report.RejectionReason = reason
		b.Status = models.BookingVisited
		b.VendorStatus = models.VendorVisited
		fx.notify(notification.NewEvent(notification.EventReportRejected, b.VendorParty(),
			"Report rejected", reason).ForBooking(b.ID))
		return nil
	})
}

// PayFirstInstallment records that the vendor's report-stage installment
// was paid out.
func (s *service) PayFirstInstallment(ctx context.Context, id, adminID uint, reference string) (*models.Booking, error) {
	return s.update(ctx, "pay first installment", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if b.Report.Status != models.ReviewApproved {
			return apperr.ErrReportNotApproved.WithMessage("report of booking %d is not approved", b.ID)
		}
		if b.FirstInstallment.Paid {
			return apperr.ErrAlreadyProcessed.WithMessage("first installment of booking %d is already paid", b.ID)
		}

		breakdown := s.fees.Calculate(s.fees.InstallmentBase(b.TotalAmount))
		now := time.Now()
		b.FirstInstallment = models.FirstInstallment{
			Amount:    breakdown.VendorNet,
			Paid:      true,
			PaidAt:    &now,
			PaidBy:    &adminID,
			Reference: strings.TrimSpace(reference),
		}
		if b.VendorStatus == models.VendorAwaitingPayment {
			b.VendorStatus = models.VendorPaidFirst
		}
		fx.notify(notification.NewEvent(notification.EventFirstInstallmentPaid, b.VendorParty(),
			"First installment paid",
			fmt.Sprintf("%.2f was paid for booking #%d", breakdown.VendorNet, b.ID)).ForBooking(b.ID))
		return nil
	})
}
