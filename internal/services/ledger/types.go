package ledger

import (
	"borewell/internal/models"
)

// Config holds the ledger tuning knobs.
type Config struct {
	// MaxCASAttempts bounds how often a mutation is re-run after a version
	// conflict on the account row.
	MaxCASAttempts int
	// MaxEntryRetries bounds Retry per FAILED entry.
	MaxEntryRetries int
}

// Request describes one credit or debit.
type Request struct {
	Party     models.PartyRef
	Amount    float64
	Type      models.TransactionType
	BookingID *uint
	Metadata  models.EntryMetadata
	// RequireSufficient makes a debit fail with INSUFFICIENT_BALANCE instead
	// of clamping at zero.
	RequireSufficient bool

	retryOf *uint
}

// Result is the outcome of a mutation. On a ledger failure Entry is the
// FAILED entry (nil if even that write failed) and Account is nil.
type Result struct {
	Entry   *models.LedgerEntry
	Account *models.WalletAccount
}

// ReconcileResult reports a reconciliation of one account.
type ReconcileResult struct {
	Party     models.PartyRef `json:"party"`
	Stored    float64         `json:"stored"`
	Computed  float64         `json:"computed"`
	Corrected bool            `json:"corrected"`
}
