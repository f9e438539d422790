package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InstallmentMeta describes a vendor installment credit (site visit, report
// upload, travel charges).
type InstallmentMeta struct {
	BookingID      uint    `json:"booking_id"`
	InstallmentPct float64 `json:"installment_pct,omitempty"`
	BaseAmount     float64 `json:"base_amount"`
	GST            float64 `json:"gst,omitempty"`
	ApprovedBy     uint    `json:"approved_by,omitempty"`
}

// PlatformFeeMeta describes a platform fee deduction.
type PlatformFeeMeta struct {
	BookingID  uint    `json:"booking_id"`
	FeeRate    float64 `json:"fee_rate"`
	BaseAmount float64 `json:"base_amount"`
}

// WithdrawalMeta describes a withdrawal lifecycle event.
type WithdrawalMeta struct {
	WithdrawalID         uint       `json:"withdrawal_id"`
	TransactionReference string     `json:"transaction_reference,omitempty"`
	PaymentMethod        string     `json:"payment_method,omitempty"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`
	Reason               string     `json:"reason,omitempty"`
	ActorID              uint       `json:"actor_id,omitempty"`
}

// SettlementMeta describes a final vendor settlement.
type SettlementMeta struct {
	BookingID   uint    `json:"booking_id"`
	Outcome     Outcome `json:"outcome"`
	BaseAmount  float64 `json:"base_amount"`
	Incentive   float64 `json:"incentive,omitempty"`
	Penalty     float64 `json:"penalty,omitempty"`
	ProcessedBy uint    `json:"processed_by"`
}

// RefundMeta describes money returned to a user.
type RefundMeta struct {
	BookingID       uint    `json:"booking_id"`
	Reason          string  `json:"reason"`
	RemainingBefore float64 `json:"remaining_before,omitempty"`
	ProcessedBy     uint    `json:"processed_by"`
}

// EntryMetadata is a tagged union keyed by Kind. Exactly the variant that
// belongs to Kind is set.
type EntryMetadata struct {
	Kind        TransactionType  `json:"kind"`
	Installment *InstallmentMeta `json:"installment,omitempty"`
	PlatformFee *PlatformFeeMeta `json:"platform_fee,omitempty"`
	Withdrawal  *WithdrawalMeta  `json:"withdrawal,omitempty"`
	Settlement  *SettlementMeta  `json:"settlement,omitempty"`
	Refund      *RefundMeta      `json:"refund,omitempty"`
}

// ErrMetadataMismatch is returned by Validate.
var ErrMetadataMismatch = errors.New("metadata variant does not match kind")

// InstallmentMetadata builds metadata for SITE_VISIT, REPORT_UPLOAD or
// TRAVEL_CHARGES entries.
func InstallmentMetadata(kind TransactionType, m InstallmentMeta) EntryMetadata {
	return EntryMetadata{Kind: kind, Installment: &m}
}

// PlatformFeeMetadata builds metadata for PLATFORM_FEE_DEDUCTION entries.
func PlatformFeeMetadata(m PlatformFeeMeta) EntryMetadata {
	return EntryMetadata{Kind: TxPlatformFeeDeduction, PlatformFee: &m}
}

// WithdrawalMetadata builds metadata for WITHDRAWAL_* entries.
func WithdrawalMetadata(kind TransactionType, m WithdrawalMeta) EntryMetadata {
	return EntryMetadata{Kind: kind, Withdrawal: &m}
}

// SettlementMetadata builds metadata for FINAL_SETTLEMENT_* entries.
func SettlementMetadata(kind TransactionType, m SettlementMeta) EntryMetadata {
	return EntryMetadata{Kind: kind, Settlement: &m}
}

// RefundMetadata builds metadata for REFUND entries.
func RefundMetadata(m RefundMeta) EntryMetadata {
	return EntryMetadata{Kind: TxRefund, Refund: &m}
}

// Validate checks that exactly the variant for Kind is present.
func (m EntryMetadata) Validate() error {
	set := 0
	for _, present := range []bool{
		m.Installment != nil,
		m.PlatformFee != nil,
		m.Withdrawal != nil,
		m.Settlement != nil,
		m.Refund != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d variants set for %s", ErrMetadataMismatch, set, m.Kind)
	}

	var ok bool
	switch m.Kind {
	case TxSiteVisit, TxReportUpload, TxTravelCharges:
		ok = m.Installment != nil
	case TxPlatformFeeDeduction:
		ok = m.PlatformFee != nil
	case TxWithdrawalRequest, TxWithdrawalProcessed, TxWithdrawalRejected:
		ok = m.Withdrawal != nil
	case TxFinalSettlementReward, TxFinalSettlementPenalty:
		ok = m.Settlement != nil
	case TxRefund:
		ok = m.Refund != nil
	}
	if !ok {
		return fmt.Errorf("%w: kind %q", ErrMetadataMismatch, m.Kind)
	}
	return nil
}

// WithdrawalID returns the withdrawal the metadata refers to, if any.
func (m EntryMetadata) WithdrawalID() (uint, bool) {
	if m.Withdrawal == nil {
		return 0, false
	}
	return m.Withdrawal.WithdrawalID, true
}

// Value implements the driver.Valuer interface
func (m EntryMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *EntryMetadata) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*m = EntryMetadata{}
		return nil
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	return json.Unmarshal(data, m)
}
