package ledger

import (
	"context"
	"errors"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/logger"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/repositories/cache"
	"borewell/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.LedgerRepository
	cache   BalanceCache
	config  Config
	metrics MetricsCollector
	logger  *zap.Logger
}

// NewService creates a new ledger service. cache, metrics and log are optional.
func NewService(
	repo repositories.LedgerRepository,
	balanceCache BalanceCache,
	config Config,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.MaxCASAttempts <= 0 {
		config.MaxCASAttempts = DefaultMaxCASAttempts
	}
	if config.MaxEntryRetries <= 0 {
		config.MaxEntryRetries = models.MaxEntryRetries
	}
	if balanceCache == nil {
		balanceCache = noopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   balanceCache,
		config:  config,
		metrics: metrics,
		logger:  logger.OrNop(log).Named("ledger"),
	}
}

func (s *service) OpenAccount(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	if !party.Valid() {
		return nil, apperr.ErrInvalidParty.WithMessage("invalid party %s", party)
	}
	account := &models.WalletAccount{PartyType: party.Type, PartyID: party.ID}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return s.repo.GetAccount(ctx, party)
}

func (s *service) Account(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	return s.repo.GetAccount(ctx, party)
}

func (s *service) Credit(ctx context.Context, req Request) (*Result, error) {
	return s.apply(ctx, req, directionCredit)
}

func (s *service) Debit(ctx context.Context, req Request) (*Result, error) {
	return s.apply(ctx, req, directionDebit)
}

func (s *service) validate(req Request) error {
	if !req.Party.Valid() {
		return apperr.ErrInvalidParty.WithMessage("invalid party %s", req.Party)
	}
	if req.Amount <= 0 || utils.RoundMoney(req.Amount) <= 0 {
		return apperr.ErrInvalidAmount.WithMessage("amount must be positive, got %.2f", req.Amount)
	}
	if !req.Type.Valid() || !req.Type.AffectsBalance() {
		return apperr.ErrInvalidMetadata.WithMessage("%q cannot move money", req.Type)
	}
	return validateMetadata(req.Type, req.Metadata)
}

func validateMetadata(txType models.TransactionType, metadata models.EntryMetadata) error {
	if metadata.Kind != txType {
		return apperr.ErrInvalidMetadata.WithMessage("metadata kind %q does not match entry type %q", metadata.Kind, txType)
	}
	if err := metadata.Validate(); err != nil {
		return apperr.ErrInvalidMetadata.Wrap(err)
	}
	return nil
}

// apply runs one mutation with a bounded retry on version conflicts. Any
// failure other than a sufficiency check is recorded as a FAILED entry.
func (s *service) apply(ctx context.Context, req Request, dir direction) (*Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(dir.String(), time.Since(start))
	}()

	if err := s.validate(req); err != nil {
		s.metrics.RecordError(dir.String(), apperr.CodeOf(err))
		return nil, err
	}

	var (
		result *Result
		err    error
	)
	if _, err = s.OpenAccount(ctx, req.Party); err == nil {
		for attempt := 1; attempt <= s.config.MaxCASAttempts; attempt++ {
			result, err = s.applyOnce(ctx, req, dir)
			if !errors.Is(err, repositories.ErrVersionConflict) {
				break
			}
			s.logger.Debug("wallet version conflict",
				zap.Stringer("party", req.Party), zap.Int("attempt", attempt))
		}
	}

	switch {
	case err == nil:
		s.invalidate(ctx, req.Party)
		s.metrics.RecordOperationResult(dir.String(), "success")
		s.metrics.RecordBalanceChange(req.Party, result.Entry.BalanceBefore, result.Entry.BalanceAfter)
		s.logger.Info("ledger entry posted",
			zap.String("direction", dir.String()),
			zap.Stringer("party", req.Party),
			zap.String("type", string(req.Type)),
			zap.Uint("entry_id", result.Entry.ID),
			zap.Float64("amount", result.Entry.Amount),
			zap.Float64("balance_after", result.Entry.BalanceAfter))
		return result, nil

	case errors.Is(err, apperr.ErrInsufficientBalance), errors.Is(err, apperr.ErrAlreadyRecovered):
		s.metrics.RecordError(dir.String(), apperr.CodeOf(err))
		return nil, err

	default:
		s.metrics.RecordOperationResult(dir.String(), "failed")
		s.metrics.RecordError(dir.String(), apperr.ErrLedgerWriteFailed.Code)
		failed := s.recordFailure(ctx, req, dir, err)
		return &Result{Entry: failed}, apperr.ErrLedgerWriteFailed.
			WithMessage("%s %s for %s failed", dir, req.Type, req.Party).
			Wrap(err)
	}
}

func (s *service) applyOnce(ctx context.Context, req Request, dir direction) (*Result, error) {
	var result *Result
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, req.Party)
		if err != nil {
			return err
		}
		// Concurrent retries of one entry serialize on the account lock;
		// only the first may post.
		if req.retryOf != nil {
			recovered, err := tx.FindSuccessfulRetry(ctx, *req.retryOf)
			if err != nil {
				return err
			}
			if recovered != nil {
				return apperr.ErrAlreadyRecovered.WithMessage(
					"ledger entry %d was recovered by entry %d", *req.retryOf, recovered.ID)
			}
		}

		amount := utils.RoundMoney(req.Amount)
		before := account.Balance
		var after float64

		switch dir {
		case directionCredit:
			after = utils.AddMoney(before, amount)
			account.TotalCredited = utils.AddMoney(account.TotalCredited, amount)
		case directionDebit:
			if req.RequireSufficient && amount > before {
				return apperr.ErrInsufficientBalance.WithMessage(
					"balance %.2f is below the requested %.2f", before, amount)
			}
			after = utils.SubMoney(before, amount)
			if after < 0 {
				after = 0
			}
			account.TotalDeducted = utils.AddMoney(account.TotalDeducted, amount)
		}
		account.Balance = after

		if err := tx.UpdateAccount(ctx, account, account.Version); err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			Reference:       uuid.NewString(),
			PartyType:       req.Party.Type,
			PartyID:         req.Party.ID,
			BookingID:       req.BookingID,
			Type:            req.Type,
			Amount:          utils.SubMoney(after, before),
			RequestedAmount: amount,
			BalanceBefore:   before,
			BalanceAfter:    after,
			Status:          models.EntrySuccess,
			RetryOf:         req.retryOf,
			Metadata:        req.Metadata,
		}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}

		result = &Result{Entry: entry, Account: account}
		return nil
	})
	return result, err
}

// recordFailure writes the FAILED entry outside the failed transaction.
func (s *service) recordFailure(ctx context.Context, req Request, dir direction, cause error) *models.LedgerEntry {
	amount := utils.RoundMoney(req.Amount)
	signed := amount
	if dir == directionDebit {
		signed = -amount
	}

	var balance float64
	if account, err := s.repo.GetAccount(ctx, req.Party); err == nil {
		balance = account.Balance
	}

	entry := &models.LedgerEntry{
		Reference:       uuid.NewString(),
		PartyType:       req.Party.Type,
		PartyID:         req.Party.ID,
		BookingID:       req.BookingID,
		Type:            req.Type,
		Amount:          signed,
		RequestedAmount: amount,
		BalanceBefore:   balance,
		BalanceAfter:    balance,
		Status:          models.EntryFailed,
		RetryOf:         req.retryOf,
		ErrorMessage:    cause.Error(),
		Metadata:        req.Metadata,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		s.logger.Error("failed to record failed ledger entry",
			zap.Stringer("party", req.Party),
			zap.String("type", string(req.Type)),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return nil
	}

	s.logger.Warn("ledger mutation failed",
		zap.String("direction", dir.String()),
		zap.Stringer("party", req.Party),
		zap.String("type", string(req.Type)),
		zap.Uint("failed_entry_id", entry.ID),
		zap.Error(cause))
	return entry
}

// Reserve writes a PENDING withdrawal reservation. The balance is untouched.
func (s *service) Reserve(ctx context.Context, party models.PartyRef, amount float64, metadata models.EntryMetadata) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount.WithMessage("amount must be positive, got %.2f", amount)
	}
	if err := validateMetadata(models.TxWithdrawalRequest, metadata); err != nil {
		return nil, err
	}
	return s.writeMarker(ctx, opReserve, party, models.TxWithdrawalRequest, models.EntryPending, utils.RoundMoney(amount), metadata)
}

// RecordMarker writes a zero-amount SUCCESS entry for an audit-only type.
func (s *service) RecordMarker(ctx context.Context, party models.PartyRef, txType models.TransactionType, metadata models.EntryMetadata) (*models.LedgerEntry, error) {
	if !txType.Valid() || txType.AffectsBalance() {
		return nil, apperr.ErrInvalidMetadata.WithMessage("%q is not a marker type", txType)
	}
	if err := validateMetadata(txType, metadata); err != nil {
		return nil, err
	}
	return s.writeMarker(ctx, opMarker, party, txType, models.EntrySuccess, 0, metadata)
}

func (s *service) writeMarker(
	ctx context.Context,
	op string,
	party models.PartyRef,
	txType models.TransactionType,
	status models.EntryStatus,
	requested float64,
	metadata models.EntryMetadata,
) (*models.LedgerEntry, error) {
	if _, err := s.OpenAccount(ctx, party); err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, party)
		if err != nil {
			return err
		}
		entry = &models.LedgerEntry{
			Reference:       uuid.NewString(),
			PartyType:       party.Type,
			PartyID:         party.ID,
			Type:            txType,
			RequestedAmount: requested,
			BalanceBefore:   account.Balance,
			BalanceAfter:    account.Balance,
			Status:          status,
			Metadata:        metadata,
		}
		return tx.CreateEntry(ctx, entry)
	})
	if err != nil {
		s.metrics.RecordError(op, apperr.ErrLedgerWriteFailed.Code)
		return nil, apperr.ErrLedgerWriteFailed.WithMessage("%s %s for %s failed", op, txType, party).Wrap(err)
	}
	s.metrics.RecordOperationResult(op, "success")
	return entry, nil
}

func (s *service) Entry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *service) Entries(ctx context.Context, party models.PartyRef, filter repositories.EntryFilter) ([]models.LedgerEntry, int64, error) {
	return s.repo.ListEntries(ctx, party, filter)
}

// RecoveredBy returns the SUCCESS retry of failedEntryID, or nil.
func (s *service) RecoveredBy(ctx context.Context, failedEntryID uint) (*models.LedgerEntry, error) {
	return s.repo.FindSuccessfulRetry(ctx, failedEntryID)
}

func (s *service) FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error) {
	return s.repo.FindWithdrawalEntry(ctx, withdrawalID, txType, status)
}

// Balance reconciles the account on every read. The cached snapshot is
// served only while it matches the reconciled balance.
func (s *service) Balance(ctx context.Context, party models.PartyRef) (*cache.BalanceSnapshot, error) {
	result, err := s.Reconcile(ctx, party)
	if err != nil {
		return nil, err
	}
	if snap, ok := s.cachedBalance(ctx, party); ok && !result.Corrected && utils.MoneyEqual(snap.Balance, result.Computed) {
		return snap, nil
	}
	account, err := s.repo.GetAccount(ctx, party)
	if err != nil {
		return nil, err
	}
	return s.storeBalance(ctx, account), nil
}
