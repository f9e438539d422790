package repositories

import (
	"context"
	"errors"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *models.WalletAccount) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account)
	if result.Error != nil {
		return fmt.Errorf("failed to create wallet account: %w", result.Error)
	}
	return nil
}

func (r *ledgerRepository) GetAccount(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	return r.findAccount(r.db.WithContext(ctx), party)
}

func (r *ledgerRepository) GetAccountForUpdate(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error) {
	return r.findAccount(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), party)
}

func (r *ledgerRepository) findAccount(db *gorm.DB, party models.PartyRef) (*models.WalletAccount, error) {
	var account models.WalletAccount
	err := db.Where("party_type = ? AND party_id = ?", party.Type, party.ID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrWalletNotFound.WithMessage("wallet not found for %s", party)
		}
		return nil, fmt.Errorf("failed to get wallet account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) UpdateAccount(ctx context.Context, account *models.WalletAccount, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.WalletAccount{}).
		Where("id = ? AND version = ?", account.ID, expectedVersion).
		Updates(map[string]interface{}{
			"balance":        account.Balance,
			"total_credited": account.TotalCredited,
			"total_deducted": account.TotalDeducted,
			"version":        expectedVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	account.Version = expectedVersion + 1
	return nil
}

func (r *ledgerRepository) ListAccounts(ctx context.Context) ([]models.WalletAccount, error) {
	var accounts []models.WalletAccount
	if err := r.db.WithContext(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallet accounts: %w", err)
	}
	return accounts, nil
}

func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetEntry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return r.findEntry(r.db.WithContext(ctx), id)
}

func (r *ledgerRepository) GetEntryForUpdate(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return r.findEntry(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ledgerRepository) findEntry(db *gorm.DB, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrEntryNotFound.WithMessage("ledger entry %d not found", id)
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) UpdateEntryRetryCount(ctx context.Context, id uint, retryCount int) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", id).
		Update("retry_count", retryCount)
	if result.Error != nil {
		return fmt.Errorf("failed to update retry count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrEntryNotFound.WithMessage("ledger entry %d not found", id)
	}
	return nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, party models.PartyRef, filter EntryFilter) ([]models.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("party_type = ? AND party_id = ?", party.Type, party.ID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BookingID != nil {
		query = query.Where("booking_id = ?", *filter.BookingID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	query = query.Order("id DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (r *ledgerRepository) SumSuccessful(ctx context.Context, party models.PartyRef, types []models.TransactionType) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("party_type = ? AND party_id = ? AND status = ? AND type IN ?",
			party.Type, party.ID, models.EntrySuccess, types).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) FindSuccessfulRetry(ctx context.Context, failedID uint) (*models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("retry_of = ? AND status = ?", failedID, models.EntrySuccess).
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find retry entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *ledgerRepository) FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", txType, status).
		Where("(metadata->'withdrawal'->>'withdrawal_id')::bigint = ?", withdrawalID).
		Order("id DESC").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find withdrawal entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
