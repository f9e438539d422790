package ledger

import (
	"context"
	"time"

	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/repositories/cache"
)

// Service defines the wallet ledger
type Service interface {
	// Accounts
	OpenAccount(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error)
	Account(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error)
	Balance(ctx context.Context, party models.PartyRef) (*cache.BalanceSnapshot, error)

	// Mutations
	Credit(ctx context.Context, req Request) (*Result, error)
	Debit(ctx context.Context, req Request) (*Result, error)
	Reserve(ctx context.Context, party models.PartyRef, amount float64, metadata models.EntryMetadata) (*models.LedgerEntry, error)
	RecordMarker(ctx context.Context, party models.PartyRef, txType models.TransactionType, metadata models.EntryMetadata) (*models.LedgerEntry, error)
	Retry(ctx context.Context, failedEntryID uint) (*Result, error)
	RecoveredBy(ctx context.Context, failedEntryID uint) (*models.LedgerEntry, error)

	// Reconciliation
	Reconcile(ctx context.Context, party models.PartyRef) (*ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]ReconcileResult, error)

	// Entries
	Entry(ctx context.Context, id uint) (*models.LedgerEntry, error)
	Entries(ctx context.Context, party models.PartyRef, filter repositories.EntryFilter) ([]models.LedgerEntry, int64, error)
	FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error)
}

// BalanceCache stores balance snapshots. cache.CacheService implements it.
type BalanceCache interface {
	GetBalance(ctx context.Context, party models.PartyRef) (*cache.BalanceSnapshot, bool, error)
	CacheBalance(ctx context.Context, snap *cache.BalanceSnapshot) error
	InvalidateBalance(ctx context.Context, party models.PartyRef) error
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation string, result string)
	RecordCacheHit(operation string)
	RecordCacheMiss(operation string)
	RecordBalanceChange(party models.PartyRef, before, after float64)
	RecordError(operation string, code string)
}
