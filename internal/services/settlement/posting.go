package settlement

import (
	"context"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"
	"borewell/internal/services/notification"
	"borewell/internal/services/retry"

	"go.uber.org/zap"
)

// posting is one ledger mutation made by a settlement step.
type posting struct {
	step     string
	party    models.PartyRef
	debit    bool
	amount   float64
	txType   models.TransactionType
	metadata models.EntryMetadata
}

// posted is the outcome of a posting. Exactly one of entryID and err is set.
type posted struct {
	entryID       *uint
	failedEntryID *uint
	err           error
}

func (p posted) ok() bool { return p.err == nil }

func (p posted) message() string {
	if p.err == nil {
		return ""
	}
	return p.err.Error()
}

// post applies p for booking b. A SUCCESS entry already posted for the same
// booking, type and party is reused, so re-running a step after a failed
// booking write does not move money twice. Ledger failures are returned in
// posted, not as an error; the FAILED entry gets a retry job.
func (s *service) post(ctx context.Context, b *models.Booking, fx *effects, p posting) (posted, error) {
	bookingID := b.ID
	existing, _, err := s.ledger.Entries(ctx, p.party, repositories.EntryFilter{
		Type:      p.txType,
		Status:    models.EntrySuccess,
		BookingID: &bookingID,
		Limit:     1,
	})
	if err != nil {
		return posted{}, fmt.Errorf("look up %s entry: %w", p.txType, err)
	}
	if len(existing) > 0 {
		id := existing[0].ID
		s.logger.Info("ledger entry already posted",
			zap.Uint("booking_id", b.ID),
			zap.String("step", p.step),
			zap.Uint("entry_id", id))
		return posted{entryID: &id}, nil
	}

	req := ledger.Request{
		Party:     p.party,
		Amount:    p.amount,
		Type:      p.txType,
		BookingID: &bookingID,
		Metadata:  p.metadata,
	}
	var res *ledger.Result
	if p.debit {
		res, err = s.ledger.Debit(ctx, req)
	} else {
		res, err = s.ledger.Credit(ctx, req)
	}
	if err == nil {
		id := res.Entry.ID
		return posted{entryID: &id}, nil
	}
	if apperr.KindOf(err) == apperr.KindValidation {
		return posted{}, fmt.Errorf("%s: %w", p.step, err)
	}

	s.logger.Warn("settlement ledger posting failed",
		zap.Uint("booking_id", b.ID),
		zap.String("step", p.step),
		zap.Stringer("party", p.party),
		zap.Float64("amount", p.amount),
		zap.Error(err))

	out := posted{err: err}
	if res != nil && res.Entry != nil {
		id := res.Entry.ID
		out.failedEntryID = &id
		fx.retries = append(fx.retries, retry.ScheduleRequest{
			EntryID:   id,
			BookingID: &bookingID,
			Step:      p.step,
		})
	}
	fx.notify(notification.NewEvent(notification.EventSettlementPaymentFailed, p.party,
		"Payment delayed",
		fmt.Sprintf("A payment of %.2f for booking #%d is delayed and will be retried", p.amount, b.ID)).
		ForBooking(b.ID))
	return out, nil
}
