package repositories

import (
	"context"

	"borewell/internal/models"
)

// LedgerRepository stores wallet accounts and their ledger entries.
type LedgerRepository interface {
	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error

	// Accounts
	CreateAccount(ctx context.Context, account *models.WalletAccount) error
	GetAccount(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error)
	GetAccountForUpdate(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error)
	// UpdateAccount writes the balance fields if the stored version still
	// equals expectedVersion, and bumps the version. ErrVersionConflict otherwise.
	UpdateAccount(ctx context.Context, account *models.WalletAccount, expectedVersion int64) error
	ListAccounts(ctx context.Context) ([]models.WalletAccount, error)

	// Entries
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetEntry(ctx context.Context, id uint) (*models.LedgerEntry, error)
	GetEntryForUpdate(ctx context.Context, id uint) (*models.LedgerEntry, error)
	UpdateEntryRetryCount(ctx context.Context, id uint, retryCount int) error
	ListEntries(ctx context.Context, party models.PartyRef, filter EntryFilter) ([]models.LedgerEntry, int64, error)
	SumSuccessful(ctx context.Context, party models.PartyRef, types []models.TransactionType) (float64, error)
	// FindSuccessfulRetry returns the SUCCESS entry retrying failedID, or nil.
	FindSuccessfulRetry(ctx context.Context, failedID uint) (*models.LedgerEntry, error)
	// FindWithdrawalEntry returns the newest entry of the given type and
	// status whose metadata references withdrawalID, or nil.
	FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error)
}
