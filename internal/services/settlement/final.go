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

func requireApprovedResult(b *models.Booking) error {
	if b.FieldResult.Status != models.ReviewApproved {
		return apperr.ErrResultNotApproved.WithMessage("field result of booking %d is not approved", b.ID)
	}
	return nil
}

// ProcessVendorSettlement pays the vendor's final installment: half the
// total plus the reward on SUCCESS, half the total less the penalty on
// FAILED.
func (s *service) ProcessVendorSettlement(ctx context.Context, id, adminID uint, in VendorSettlementInput) (*models.Booking, error) {
	if err := requireAmount(in.Reward, "reward amount"); err != nil {
		return nil, err
	}
	if err := requireAmount(in.Penalty, "penalty amount"); err != nil {
		return nil, err
	}
	return s.update(ctx, "process vendor settlement", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if err := requireApprovedResult(b); err != nil {
			return err
		}
		if b.VendorSettled() {
			return apperr.ErrAlreadyProcessed.WithMessage("vendor settlement of booking %d is already processed", b.ID)
		}

		outcome := b.FieldResult.Outcome
		amount, err := s.fees.VendorFinalAmount(b.TotalAmount, outcome, in.Reward, in.Penalty)
		if err != nil {
			return err
		}

		txType, settlementType := models.TxFinalSettlementReward, models.SettlementReward
		if outcome == models.OutcomeFailed {
			txType, settlementType = models.TxFinalSettlementPenalty, models.SettlementPenalty
		}

		now := time.Now()
		vs := &b.VendorSettlement
		*vs = models.VendorSettlement{
			Amount:         amount,
			Status:         models.StepCompleted,
			SettlementType: settlementType,
			Incentive:      utils.RoundMoney(in.Reward),
			Penalty:        utils.RoundMoney(in.Penalty),
			Notes:          strings.TrimSpace(in.Notes),
			ProcessedAt:    &now,
			ProcessedBy:    &adminID,
		}
		b.FinalSettlement.RewardAmount = vs.Incentive
		b.FinalSettlement.PenaltyAmount = vs.Penalty

		// A penalty that eats the whole installment leaves nothing to credit.
		if amount > 0 {
			credit, err := s.post(ctx, b, fx, posting{
				step:   StepVendorSettlement,
				party:  b.VendorParty(),
				amount: amount,
				txType: txType,
				metadata: models.SettlementMetadata(txType, models.SettlementMeta{
					BookingID:   b.ID,
					Outcome:     outcome,
					BaseAmount:  s.fees.InstallmentBase(b.TotalAmount),
					Incentive:   vs.Incentive,
					Penalty:     vs.Penalty,
					ProcessedBy: adminID,
				}),
			})
			if err != nil {
				return err
			}
			vs.EntryID = credit.entryID
			vs.Failed = !credit.ok()
			vs.ErrorMessage = credit.message()
			vs.FailedEntryID = credit.failedEntryID
		}

		b.VendorStatus = models.VendorFinalSettlementComplete
		fx.notify(notification.NewEvent(notification.EventVendorSettlementDone, b.VendorParty(),
			"Final settlement processed",
			fmt.Sprintf("Your final settlement of %.2f for booking #%d was processed", amount, b.ID)).ForBooking(b.ID))
		converge(b, fx)
		return nil
	})
}

// ProcessUserSettlement finalizes the user's side. A SUCCESS outcome needs
// no payment; a FAILED outcome remits up to the booking's remaining amount
// to the user's wallet.
func (s *service) ProcessUserSettlement(ctx context.Context, id, adminID uint, in UserSettlementInput) (*models.Booking, error) {
	if err := requireAmount(in.Remittance, "remittance amount"); err != nil {
		return nil, err
	}
	remittance := utils.RoundMoney(in.Remittance)
	return s.update(ctx, "process user settlement", id, func(b *models.Booking, fx *effects) error {
		if err := requireOpen(b); err != nil {
			return err
		}
		if err := requireApprovedResult(b); err != nil {
			return err
		}
		if b.UserSettled() {
			return apperr.ErrAlreadyProcessed.WithMessage("user settlement of booking %d is already processed", b.ID)
		}

		outcome := b.FieldResult.Outcome
		switch {
		case outcome == models.OutcomeSuccess && remittance != 0:
			return apperr.ErrRemittanceInvalid.WithMessage("a successful outcome is completed without remittance")
		case outcome == models.OutcomeFailed && remittance > b.RemainingAmount:
			return apperr.ErrRemittanceInvalid.WithMessage(
				"remittance %.2f exceeds the remaining amount of %.2f", remittance, b.RemainingAmount)
		}

		now := time.Now()
		fs := &b.FinalSettlement
		fs.RemittanceAmount = remittance
		fs.UserSettlementProcessed = true
		fs.UserProcessedAt = &now
		fs.ProcessedBy = &adminID
		fs.Notes = strings.TrimSpace(in.Notes)

		body := fmt.Sprintf("Booking #%d is settled", b.ID)
		if remittance > 0 {
			refund, err := s.post(ctx, b, fx, posting{
				step:   StepUserRefund,
				party:  b.UserParty(),
				amount: remittance,
				txType: models.TxRefund,
				metadata: models.RefundMetadata(models.RefundMeta{
					BookingID:       b.ID,
					Reason:          "field result failed",
					RemainingBefore: b.RemainingAmount,
					ProcessedBy:     adminID,
				}),
			})
			if err != nil {
				return err
			}
			fs.EntryID = refund.entryID
			fs.Failed = !refund.ok()
			fs.ErrorMessage = refund.message()
			fs.FailedEntryID = refund.failedEntryID
			body = fmt.Sprintf("%.2f was returned to your wallet for booking #%d", remittance, b.ID)
		}

		b.UserStatus = models.UserCompleted
		fx.notify(notification.NewEvent(notification.EventUserSettlementDone, b.UserParty(),
			"Settlement processed", body).ForBooking(b.ID))
		converge(b, fx)
		return nil
	})
}

// converge completes the booking once both sides are settled. Each side is
// judged only by its own explicit flag.
func converge(b *models.Booking, fx *effects) {
	if !b.VendorSettled() || !b.UserSettled() {
		b.Status = models.BookingFinalSettlement
		b.FinalSettlement.Status = models.StepInProgress
		return
	}

	b.Status = models.BookingCompleted
	b.UserStatus = models.UserCompleted
	b.VendorStatus = models.VendorCompleted
	b.FinalSettlement.Status = models.StepCompleted
	for _, party := range []models.PartyRef{b.UserParty(), b.VendorParty()} {
		fx.notify(notification.NewEvent(notification.EventBookingCompleted, party,
			"Booking completed", fmt.Sprintf("Booking #%d is complete", b.ID)).ForBooking(b.ID))
	}
}
