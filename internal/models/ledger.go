package models

import (
	"time"
)

// TransactionType tags a ledger entry and selects its metadata variant.
type TransactionType string

const (
	TxSiteVisit              TransactionType = "SITE_VISIT"
	TxReportUpload           TransactionType = "REPORT_UPLOAD"
	TxTravelCharges          TransactionType = "TRAVEL_CHARGES"
	TxPlatformFeeDeduction   TransactionType = "PLATFORM_FEE_DEDUCTION"
	TxWithdrawalRequest      TransactionType = "WITHDRAWAL_REQUEST"
	TxWithdrawalProcessed    TransactionType = "WITHDRAWAL_PROCESSED"
	TxWithdrawalRejected     TransactionType = "WITHDRAWAL_REJECTED"
	TxFinalSettlementReward  TransactionType = "FINAL_SETTLEMENT_REWARD"
	TxFinalSettlementPenalty TransactionType = "FINAL_SETTLEMENT_PENALTY"
	TxRefund                 TransactionType = "REFUND"
)

// TransactionTypes lists every known entry type.
var TransactionTypes = []TransactionType{
	TxSiteVisit,
	TxReportUpload,
	TxTravelCharges,
	TxPlatformFeeDeduction,
	TxWithdrawalRequest,
	TxWithdrawalProcessed,
	TxWithdrawalRejected,
	TxFinalSettlementReward,
	TxFinalSettlementPenalty,
	TxRefund,
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AffectsBalance reports whether SUCCESS entries of type t move money.
// Withdrawal requests and rejections are audit markers only.
func (t TransactionType) AffectsBalance() bool {
	return t != TxWithdrawalRequest && t != TxWithdrawalRejected
}

// BalanceAffectingTypes is the set summed by reconciliation.
func BalanceAffectingTypes() []TransactionType {
	types := make([]TransactionType, 0, len(TransactionTypes))
	for _, t := range TransactionTypes {
		if t.AffectsBalance() {
			types = append(types, t)
		}
	}
	return types
}

// EntryStatus is the outcome of a ledger mutation attempt.
type EntryStatus string

const (
	EntrySuccess EntryStatus = "SUCCESS"
	EntryFailed  EntryStatus = "FAILED"
	EntryPending EntryStatus = "PENDING"
)

// MaxEntryRetries bounds how often a FAILED entry may be retried.
const MaxEntryRetries = 3

// LedgerEntry is one immutable balance event. Only RetryCount changes after
// the entry is written.
type LedgerEntry struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	Reference       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	PartyType       PartyType       `gorm:"type:varchar(16);not null;index:idx_entry_party" json:"party_type"`
	PartyID         uint            `gorm:"not null;index:idx_entry_party" json:"party_id"`
	BookingID       *uint           `gorm:"index" json:"booking_id,omitempty"`
	Type            TransactionType `gorm:"type:varchar(40);not null;index" json:"type"`
	Amount          float64         `gorm:"not null" json:"amount"`
	RequestedAmount float64         `gorm:"not null" json:"requested_amount"`
	BalanceBefore   float64         `gorm:"not null" json:"balance_before"`
	BalanceAfter    float64         `gorm:"not null" json:"balance_after"`
	Status          EntryStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	RetryCount      int             `gorm:"not null;default:0" json:"retry_count"`
	RetryOf         *uint           `gorm:"index" json:"retry_of,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	Metadata        EntryMetadata   `gorm:"type:jsonb" json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Party returns the owner of the entry.
func (e *LedgerEntry) Party() PartyRef {
	return PartyRef{Type: e.PartyType, ID: e.PartyID}
}

// IsDebit reports whether the entry removes (or tried to remove) money.
func (e *LedgerEntry) IsDebit() bool {
	return e.Amount < 0
}
