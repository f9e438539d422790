package ledger

import (
	"context"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/repositories"

	"go.uber.org/zap"
)

// Retry re-runs a FAILED entry in its original direction. The original's
// retry count is bumped on every attempt; the new entry references it via
// RetryOf whether it succeeds or fails.
func (s *service) Retry(ctx context.Context, failedEntryID uint) (*Result, error) {
	var original models.LedgerEntry
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, failedEntryID)
		if err != nil {
			return err
		}
		if entry.Status != models.EntryFailed {
			return apperr.ErrNotRetryable.WithMessage("ledger entry %d is %s", entry.ID, entry.Status)
		}
		if entry.RetryOf != nil {
			return apperr.ErrNotRetryable.WithMessage("ledger entry %d is a retry of %d", entry.ID, *entry.RetryOf)
		}
		recovered, err := tx.FindSuccessfulRetry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if recovered != nil {
			return apperr.ErrAlreadyRecovered.WithMessage(
				"ledger entry %d was recovered by entry %d", entry.ID, recovered.ID)
		}
		if entry.RetryCount >= s.config.MaxEntryRetries {
			return apperr.ErrRetryLimitExceeded.WithMessage(
				"ledger entry %d was retried %d times", entry.ID, entry.RetryCount)
		}

		entry.RetryCount++
		if err := tx.UpdateEntryRetryCount(ctx, entry.ID, entry.RetryCount); err != nil {
			return err
		}
		original = *entry
		return nil
	})
	if err != nil {
		s.metrics.RecordError(opRetry, apperr.CodeOf(err))
		return nil, fmt.Errorf("retry ledger entry %d: %w", failedEntryID, err)
	}

	s.logger.Info("retrying ledger entry",
		zap.Uint("entry_id", original.ID),
		zap.Int("attempt", original.RetryCount))

	req := Request{
		Party:     original.Party(),
		Amount:    original.RequestedAmount,
		Type:      original.Type,
		BookingID: original.BookingID,
		Metadata:  original.Metadata,
		retryOf:   &original.ID,
	}
	if original.IsDebit() {
		req.RequireSufficient = original.Type == models.TxWithdrawalProcessed
		return s.apply(ctx, req, directionDebit)
	}
	return s.apply(ctx, req, directionCredit)
}
