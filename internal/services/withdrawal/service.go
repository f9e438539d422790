// Package withdrawal implements the withdrawal request state machine:
// PENDING -> APPROVED -> PROCESSED, with PENDING or APPROVED -> REJECTED.
// Only processing moves money; it debits the ledger after re-checking the
// balance inside the ledger transaction.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperr "borewell/internal/errors"
	"borewell/internal/logger"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"
	"borewell/internal/services/notification"
	"borewell/internal/services/payout"
	"borewell/internal/utils"

	"go.uber.org/zap"
)

// Service defines the withdrawal workflow
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id, approverID uint, notes string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id, approverID uint, reason string) (*models.WithdrawalRequest, error)
	Process(ctx context.Context, id, approverID uint, req ProcessRequest) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	List(ctx context.Context, filter repositories.WithdrawalFilter) ([]models.WithdrawalRequest, int64, error)
}

type service struct {
	repo     repositories.WithdrawalRepository
	ledger   Ledger
	gateway  payout.Gateway
	notifier notification.Notifier
	config   Config
	logger   *zap.Logger
}

// NewService creates the withdrawal workflow. gateway, notifier and log are optional.
func NewService(
	repo repositories.WithdrawalRepository,
	ledgerSvc Ledger,
	gateway payout.Gateway,
	notifier notification.Notifier,
	config Config,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger is required")
	}
	if gateway == nil {
		gateway = payout.NoopGateway{}
	}
	if notifier == nil {
		notifier = notification.Noop{}
	}
	if config.Minimum <= 0 {
		config.Minimum = DefaultMinimum
	}

	return &service{
		repo:     repo,
		ledger:   ledgerSvc,
		gateway:  gateway,
		notifier: notifier,
		config:   config,
		logger:   logger.OrNop(log).Named("withdrawal"),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*models.WithdrawalRequest, error) {
	if !req.Party.Valid() {
		return nil, apperr.ErrInvalidParty.WithMessage("invalid party %s", req.Party)
	}
	amount := utils.RoundMoney(req.Amount)
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount.WithMessage("withdrawal amount must be positive")
	}
	if amount < s.config.Minimum {
		return nil, apperr.ErrBelowMinimum.WithMessage(
			"withdrawal amount %.2f is below the minimum of %.2f", amount, s.config.Minimum)
	}

	balance := 0.0
	account, err := s.ledger.Account(ctx, req.Party)
	switch {
	case err == nil:
		balance = account.Balance
	case !errors.Is(err, apperr.ErrWalletNotFound):
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	if amount > balance {
		return nil, apperr.ErrInsufficientBalance.WithMessage(
			"withdrawal amount %.2f exceeds the balance of %.2f", amount, balance)
	}

	w := &models.WithdrawalRequest{
		PartyType:         req.Party.Type,
		PartyID:           req.Party.ID,
		Amount:            amount,
		Status:            models.WithdrawalPending,
		PayoutDestination: req.Destination,
		RequestedAt:       time.Now(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	s.reserve(ctx, w)

	s.logger.Info("withdrawal requested",
		zap.Uint("withdrawal_id", w.ID),
		zap.Stringer("party", req.Party),
		zap.Float64("amount", amount))
	s.notify(ctx, notification.NewEvent(notification.EventWithdrawalCreated, req.Party,
		"Withdrawal requested",
		fmt.Sprintf("Your withdrawal of %.2f is awaiting review", amount)).ForWithdrawal(w.ID))
	return w, nil
}

// reserve writes the PENDING reservation marker for a committed request and
// links it. The request stands when either write fails; the marker is still
// found by withdrawal id.
func (s *service) reserve(ctx context.Context, w *models.WithdrawalRequest) {
	meta := models.WithdrawalMetadata(models.TxWithdrawalRequest, models.WithdrawalMeta{
		WithdrawalID: w.ID,
		ActorID:      w.PartyID,
	})
	reservation, err := s.ledger.Reserve(ctx, w.Party(), w.Amount, meta)
	if err != nil {
		s.logger.Warn("withdrawal reservation not recorded",
			zap.Uint("withdrawal_id", w.ID),
			zap.Error(err))
		return
	}
	w.ReservationEntryID = &reservation.ID
	if err := s.repo.Update(ctx, w); err != nil {
		w.ReservationEntryID = nil
		s.logger.Warn("withdrawal reservation not linked",
			zap.Uint("withdrawal_id", w.ID),
			zap.Uint("reservation_entry_id", reservation.ID),
			zap.Error(err))
	}
}

func (s *service) Approve(ctx context.Context, id, approverID uint, notes string) (*models.WithdrawalRequest, error) {
	w, err := s.transition(ctx, id, func(w *models.WithdrawalRequest) error {
		if w.Status != models.WithdrawalPending {
			return stateConflict(w, models.WithdrawalPending)
		}
		now := time.Now()
		w.Status = models.WithdrawalApproved
		w.ApprovedAt = &now
		w.ApprovedBy = &approverID
		w.ApprovalNotes = strings.TrimSpace(notes)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve withdrawal: %w", err)
	}

	s.logger.Info("withdrawal approved", zap.Uint("withdrawal_id", id), zap.Uint("approver_id", approverID))
	w = s.originatePayout(ctx, w)
	s.notify(ctx, notification.NewEvent(notification.EventWithdrawalApproved, w.Party(),
		"Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %.2f was approved", w.Amount)).ForWithdrawal(w.ID))
	return w, nil
}

// originatePayout asks the gateway to pay out an approved request. Gateway
// errors are stored on the request and never undo the approval.
func (s *service) originatePayout(ctx context.Context, approved *models.WithdrawalRequest) *models.WithdrawalRequest {
	res, gatewayErr := s.gateway.CreatePayout(ctx, payout.Request{
		WithdrawalID: approved.ID,
		Party:        approved.Party(),
		Amount:       approved.Amount,
		Currency:     s.config.Currency,
		Destination:  approved.PayoutDestination,
	})
	if gatewayErr != nil {
		s.logger.Warn("payout origination failed",
			zap.Uint("withdrawal_id", approved.ID), zap.Error(gatewayErr))
	}

	updated, err := s.transition(ctx, approved.ID, func(w *models.WithdrawalRequest) error {
		if gatewayErr != nil {
			w.PayoutDetails = models.JSON{"error": gatewayErr.Error()}
			return nil
		}
		w.PayoutReference = res.Reference
		w.PayoutDetails = res.Details
		if w.PayoutDetails == nil {
			w.PayoutDetails = models.JSON{}
		}
		w.PayoutDetails["status"] = res.Status
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to store payout details",
			zap.Uint("withdrawal_id", approved.ID), zap.Error(err))
		return approved
	}
	return updated
}

func (s *service) Reject(ctx context.Context, id, approverID uint, reason string) (*models.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.ErrReasonRequired.WithMessage("a rejection reason is required")
	}

	w, err := s.transition(ctx, id, func(w *models.WithdrawalRequest) error {
		if w.Status != models.WithdrawalPending && w.Status != models.WithdrawalApproved {
			return stateConflict(w, models.WithdrawalPending, models.WithdrawalApproved)
		}
		meta := models.WithdrawalMetadata(models.TxWithdrawalRejected, models.WithdrawalMeta{
			WithdrawalID: w.ID,
			Reason:       reason,
			ActorID:      approverID,
		})
		if _, err := s.ledger.RecordMarker(ctx, w.Party(), models.TxWithdrawalRejected, meta); err != nil {
			return err
		}

		now := time.Now()
		w.Status = models.WithdrawalRejected
		w.RejectedAt = &now
		w.RejectedBy = &approverID
		w.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reject withdrawal: %w", err)
	}

	s.logger.Info("withdrawal rejected", zap.Uint("withdrawal_id", id), zap.String("reason", reason))
	s.notify(ctx, notification.NewEvent(notification.EventWithdrawalRejected, w.Party(),
		"Withdrawal rejected", reason).ForWithdrawal(w.ID))
	return w, nil
}

func (s *service) Process(ctx context.Context, id, approverID uint, req ProcessRequest) (*models.WithdrawalRequest, error) {
	req.TransactionReference = strings.TrimSpace(req.TransactionReference)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.TransactionReference == "" {
		return nil, apperr.ErrMissingField.WithMessage("transaction reference is required")
	}
	if req.PaymentMethod == "" {
		return nil, apperr.ErrMissingField.WithMessage("payment method is required")
	}
	if req.PaymentDate.IsZero() {
		req.PaymentDate = time.Now()
	}

	w, err := s.transition(ctx, id, func(w *models.WithdrawalRequest) error {
		switch w.Status {
		case models.WithdrawalApproved:
		case models.WithdrawalProcessed:
			return apperr.ErrAlreadyProcessed.WithMessage("withdrawal %d is already processed", w.ID)
		default:
			return stateConflict(w, models.WithdrawalApproved)
		}

		entryID, err := s.debit(ctx, w, approverID, req)
		if err != nil {
			return err
		}

		now := time.Now()
		w.Status = models.WithdrawalProcessed
		w.ProcessedAt = &now
		w.ProcessedBy = &approverID
		w.TransactionReference = req.TransactionReference
		w.PaymentMethod = req.PaymentMethod
		w.PaymentDate = &req.PaymentDate
		w.ProcessingNotes = strings.TrimSpace(req.Notes)
		w.ProcessedEntryID = &entryID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}

	s.logger.Info("withdrawal processed",
		zap.Uint("withdrawal_id", id),
		zap.String("transaction_reference", req.TransactionReference))
	s.notify(ctx, notification.NewEvent(notification.EventWithdrawalProcessed, w.Party(),
		"Withdrawal paid",
		fmt.Sprintf("%.2f was sent via %s", w.Amount, req.PaymentMethod)).ForWithdrawal(w.ID))
	return w, nil
}

// debit posts the WITHDRAWAL_PROCESSED entry unless an earlier attempt
// already posted it and failed before the request was updated.
func (s *service) debit(ctx context.Context, w *models.WithdrawalRequest, approverID uint, req ProcessRequest) (uint, error) {
	existing, err := s.ledger.FindWithdrawalEntry(ctx, w.ID, models.TxWithdrawalProcessed, models.EntrySuccess)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		s.logger.Info("withdrawal debit already posted",
			zap.Uint("withdrawal_id", w.ID), zap.Uint("entry_id", existing.ID))
		return existing.ID, nil
	}

	paymentDate := req.PaymentDate
	res, err := s.ledger.Debit(ctx, ledger.Request{
		Party:  w.Party(),
		Amount: w.Amount,
		Type:   models.TxWithdrawalProcessed,
		Metadata: models.WithdrawalMetadata(models.TxWithdrawalProcessed, models.WithdrawalMeta{
			WithdrawalID:         w.ID,
			TransactionReference: req.TransactionReference,
			PaymentMethod:        req.PaymentMethod,
			PaymentDate:          &paymentDate,
			ActorID:              approverID,
		}),
		RequireSufficient: true,
	})
	if err != nil {
		return 0, err
	}
	return res.Entry.ID, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter repositories.WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.repo.List(ctx, filter)
}

// transition locks the request, applies mutate and saves it. Nothing is
// saved when mutate fails.
func (s *service) transition(ctx context.Context, id uint, mutate func(*models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	var updated *models.WithdrawalRequest
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WithdrawalRepository) error {
		w, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(w); err != nil {
			return err
		}
		if err := tx.Update(ctx, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	return updated, err
}

func (s *service) notify(ctx context.Context, event notification.Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("notification failed",
			zap.String("type", event.Type),
			zap.Stringer("recipient", event.Recipient),
			zap.Error(err))
	}
}

func stateConflict(w *models.WithdrawalRequest, expected ...models.WithdrawalStatus) error {
	want := make([]string, len(expected))
	for i, st := range expected {
		want[i] = string(st)
	}
	return apperr.ErrStateConflict.WithMessage("withdrawal %d is %s, expected %s",
		w.ID, w.Status, strings.Join(want, " or "))
}
