package withdrawal

import (
	"context"
	"time"

	"borewell/internal/models"
	"borewell/internal/services/ledger"
)

// DefaultMinimum is the smallest amount a party may withdraw.
const DefaultMinimum = 1000.0

// Config holds the workflow limits.
type Config struct {
	Minimum  float64
	Currency string
}

// CreateRequest is a party's withdrawal request.
type CreateRequest struct {
	Party       models.PartyRef
	Amount      float64
	Destination string
}

// ProcessRequest carries the confirmation of a completed payout.
type ProcessRequest struct {
	TransactionReference string
	PaymentMethod        string
	PaymentDate          time.Time
	Notes                string
}

// Ledger is the part of the wallet ledger the workflow needs.
type Ledger interface {
	Account(ctx context.Context, party models.PartyRef) (*models.WalletAccount, error)
	Debit(ctx context.Context, req ledger.Request) (*ledger.Result, error)
	Reserve(ctx context.Context, party models.PartyRef, amount float64, metadata models.EntryMetadata) (*models.LedgerEntry, error)
	RecordMarker(ctx context.Context, party models.PartyRef, txType models.TransactionType, metadata models.EntryMetadata) (*models.LedgerEntry, error)
	FindWithdrawalEntry(ctx context.Context, withdrawalID uint, txType models.TransactionType, status models.EntryStatus) (*models.LedgerEntry, error)
}
