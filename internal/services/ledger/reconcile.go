package ledger

import (
	"context"
	"errors"
	"fmt"

	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/utils"

	"go.uber.org/zap"
)

// Reconcile recomputes the balance from SUCCESS entries and overwrites the
// stored balance when they disagree by more than one cent.
func (s *service) Reconcile(ctx context.Context, party models.PartyRef) (*ReconcileResult, error) {
	var result ReconcileResult
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, party)
		if err != nil {
			return err
		}
		computed, err := tx.SumSuccessful(ctx, party, models.BalanceAffectingTypes())
		if err != nil {
			return err
		}
		computed = utils.RoundMoney(computed)

		result = ReconcileResult{Party: party, Stored: account.Balance, Computed: computed}
		if utils.MoneyEqual(account.Balance, computed) {
			return nil
		}

		account.Balance = computed
		if account.Balance < 0 {
			account.Balance = 0
		}
		if err := tx.UpdateAccount(ctx, account, account.Version); err != nil {
			return err
		}
		result.Corrected = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", party, err)
	}

	if result.Corrected {
		s.invalidate(ctx, party)
		s.metrics.RecordOperationResult(opReconcile, "corrected")
		s.logger.Warn("wallet balance drift corrected",
			zap.Stringer("party", party),
			zap.Float64("stored", result.Stored),
			zap.Float64("computed", result.Computed))
	}
	return &result, nil
}

// ReconcileAll reconciles every account and keeps going past failures.
func (s *service) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ReconcileResult, 0, len(accounts))
	var errs []error
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Reconcile(ctx, account.Party())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}
