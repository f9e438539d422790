package models

import (
	"time"
)

// WithdrawalStatus is the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
	WithdrawalProcessed WithdrawalStatus = "PROCESSED"
)

// Terminal reports whether no further transition is possible.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalRejected || s == WithdrawalProcessed
}

// WithdrawalRequest is a party's request to move wallet money out.
type WithdrawalRequest struct {
	ID                   uint             `gorm:"primarykey" json:"id"`
	PartyType            PartyType        `gorm:"type:varchar(16);not null;index:idx_withdrawal_party" json:"party_type"`
	PartyID              uint             `gorm:"not null;index:idx_withdrawal_party" json:"party_id"`
	Amount               float64          `gorm:"not null" json:"amount"`
	Status               WithdrawalStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	PayoutDestination    string           `json:"payout_destination,omitempty"`
	RequestedAt          time.Time        `json:"requested_at"`
	ApprovedAt           *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy           *uint            `json:"approved_by,omitempty"`
	ApprovalNotes        string           `json:"approval_notes,omitempty"`
	RejectedAt           *time.Time       `json:"rejected_at,omitempty"`
	RejectedBy           *uint            `json:"rejected_by,omitempty"`
	RejectionReason      string           `json:"rejection_reason,omitempty"`
	ProcessedAt          *time.Time       `json:"processed_at,omitempty"`
	ProcessedBy          *uint            `json:"processed_by,omitempty"`
	TransactionReference string           `json:"transaction_reference,omitempty"`
	PaymentMethod        string           `json:"payment_method,omitempty"`
	PaymentDate          *time.Time       `json:"payment_date,omitempty"`
	ProcessingNotes      string           `json:"processing_notes,omitempty"`
	PayoutReference      string           `json:"payout_reference,omitempty"`
	PayoutDetails        JSON             `gorm:"type:jsonb" json:"payout_details,omitempty"`
	ReservationEntryID   *uint            `json:"reservation_entry_id,omitempty"`
	ProcessedEntryID     *uint            `json:"processed_entry_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Party returns the requesting party.
func (w *WithdrawalRequest) Party() PartyRef {
	return PartyRef{Type: w.PartyType, ID: w.PartyID}
}
