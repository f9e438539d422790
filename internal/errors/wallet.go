package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
		Kind:    KindConsistency,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Kind:    KindNotFound,
	}
	ErrEntryNotFound = &DomainError{
		Code:    "LEDGER_ENTRY_NOT_FOUND",
		Message: "ledger entry not found",
		Kind:    KindNotFound,
	}
	ErrLedgerWriteFailed = &DomainError{
		Code:    "LEDGER_WRITE_FAILED",
		Message: "ledger mutation failed",
		Kind:    KindLedgerFailure,
	}
	ErrNotRetryable = &DomainError{
		Code:    "ENTRY_NOT_RETRYABLE",
		Message: "ledger entry cannot be retried",
		Kind:    KindConsistency,
	}
	ErrRetryLimitExceeded = &DomainError{
		Code:    "RETRY_LIMIT_EXCEEDED",
		Message: "ledger entry retry limit reached",
		Kind:    KindConsistency,
	}
	ErrAlreadyRecovered = &DomainError{
		Code:    "ENTRY_ALREADY_RECOVERED",
		Message: "ledger entry already has a successful retry",
		Kind:    KindConsistency,
	}
)
