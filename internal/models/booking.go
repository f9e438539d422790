package models

import (
	"time"
)

// BookingStatus is the overall booking track.
type BookingStatus string

const (
	BookingPending          BookingStatus = "PENDING"
	BookingAccepted         BookingStatus = "ACCEPTED"
	BookingVisited          BookingStatus = "VISITED"
	BookingReportUploaded   BookingStatus = "REPORT_UPLOADED"
	BookingBorewellUploaded BookingStatus = "BOREWELL_UPLOADED"
	BookingAdminApproved    BookingStatus = "ADMIN_APPROVED"
	BookingFinalSettlement  BookingStatus = "FINAL_SETTLEMENT"
	BookingCompleted        BookingStatus = "COMPLETED"
	BookingCancelled        BookingStatus = "CANCELLED"
)

// UserStatus is the user-side track.
type UserStatus string

const (
	UserPending          UserStatus = "PENDING"
	UserAssigned         UserStatus = "ASSIGNED"
	UserVisited          UserStatus = "VISITED"
	UserReportReady      UserStatus = "REPORT_READY"
	UserBorewellUploaded UserStatus = "BOREWELL_UPLOADED"
	UserAdminApproved    UserStatus = "ADMIN_APPROVED"
	UserCompleted        UserStatus = "COMPLETED"
	UserCancelled        UserStatus = "CANCELLED"
)

// VendorStatus is the vendor-side track.
type VendorStatus string

const (
	VendorPending                 VendorStatus = "PENDING"
	VendorAccepted                VendorStatus = "ACCEPTED"
	VendorVisited                 VendorStatus = "VISITED"
	VendorReportUploaded          VendorStatus = "REPORT_UPLOADED"
	VendorAwaitingPayment         VendorStatus = "AWAITING_PAYMENT"
	VendorPaidFirst               VendorStatus = "PAID_FIRST"
	VendorApproved                VendorStatus = "APPROVED"
	VendorFinalSettlementComplete VendorStatus = "FINAL_SETTLEMENT_COMPLETE"
	VendorCompleted               VendorStatus = "COMPLETED"
	VendorCancelled               VendorStatus = "CANCELLED"
)

// Outcome is the recorded field (borewell) result.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
)

// Valid reports whether o is SUCCESS or FAILED.
func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailed
}

// ReviewStatus is shared by the report and field-result reviews.
type ReviewStatus string

const (
	ReviewNone     ReviewStatus = ""
	ReviewUploaded ReviewStatus = "UPLOADED"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// StepStatus is shared by the settlement sub-documents.
type StepStatus string

const (
	StepNone       StepStatus = ""
	StepPending    StepStatus = "PENDING"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepApproved   StepStatus = "APPROVED"
	StepRejected   StepStatus = "REJECTED"
	StepProcessed  StepStatus = "PROCESSED"
	StepCompleted  StepStatus = "COMPLETED"
)

// SettlementType is the polarity of the vendor's final settlement.
type SettlementType string

const (
	SettlementReward  SettlementType = "REWARD"
	SettlementPenalty SettlementType = "PENALTY"
)

// Report is the vendor's inspection report review.
type Report struct {
	Status          ReviewStatus `gorm:"type:varchar(16)" json:"status"`
	URL             string       `json:"url,omitempty"`
	UploadedAt      *time.Time   `json:"uploaded_at,omitempty"`
	ApprovedAt      *time.Time   `json:"approved_at,omitempty"`
	ApprovedBy      *uint        `json:"approved_by,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// ReportPayout records the report-stage installment credited to the vendor.
type ReportPayout struct {
	Amount           float64    `json:"amount"`
	PlatformFee      float64    `json:"platform_fee"`
	Status           StepStatus `gorm:"type:varchar(16)" json:"status"`
	CreditedAt       *time.Time `json:"credited_at,omitempty"`
	CreditEntryID    *uint      `json:"credit_entry_id,omitempty"`
	FeeEntryID       *uint      `json:"fee_entry_id,omitempty"`
	Failed           bool       `json:"failed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	FailedEntryID    *uint      `json:"failed_entry_id,omitempty"`
	FeeFailedEntryID *uint      `json:"fee_failed_entry_id,omitempty"`
}

// FirstInstallment records the admin-confirmed first vendor payment.
type FirstInstallment struct {
	Amount    float64    `json:"amount"`
	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	PaidBy    *uint      `json:"paid_by,omitempty"`
	Reference string     `json:"reference,omitempty"`
}

// TravelChargesRequest is a vendor claim for extra travel cost.
type TravelChargesRequest struct {
	Status        StepStatus `gorm:"type:varchar(16)" json:"status"`
	Amount        float64    `json:"amount"`
	Paid          bool       `json:"paid"`
	Reason        string     `json:"reason,omitempty"`
	ReviewedBy    *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	EntryID       *uint      `json:"entry_id,omitempty"`
	Failed        bool       `json:"failed"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	FailedEntryID *uint      `json:"failed_entry_id,omitempty"`
}

// FieldResult is the user-uploaded borewell outcome and its review.
type FieldResult struct {
	Status          ReviewStatus `gorm:"type:varchar(16)" json:"status"`
	Outcome         Outcome      `gorm:"type:varchar(16)" json:"outcome,omitempty"`
	UploadedAt      *time.Time   `json:"uploaded_at,omitempty"`
	ApprovedAt      *time.Time   `json:"approved_at,omitempty"`
	ApprovedBy      *uint        `json:"approved_by,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// VendorSettlement is the vendor's final (second) installment.
type VendorSettlement struct {
	Amount         float64        `json:"amount"`
	Status         StepStatus     `gorm:"type:varchar(16)" json:"status"`
	SettlementType SettlementType `gorm:"type:varchar(16)" json:"settlement_type,omitempty"`
	Incentive      float64        `json:"incentive"`
	Penalty        float64        `json:"penalty"`
	Notes          string         `json:"notes,omitempty"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
	ProcessedBy    *uint          `json:"processed_by,omitempty"`
	EntryID        *uint          `json:"entry_id,omitempty"`
	Failed         bool           `json:"failed"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	FailedEntryID  *uint          `json:"failed_entry_id,omitempty"`
}

// FinalSettlement is the outcome-dependent settlement of both sides.
// UserSettlementProcessed is the only signal that the user side is done.
type FinalSettlement struct {
	RewardAmount            float64    `json:"reward_amount"`
	PenaltyAmount           float64    `json:"penalty_amount"`
	RemittanceAmount        float64    `json:"remittance_amount"`
	Status                  StepStatus `gorm:"type:varchar(16)" json:"status"`
	BorewellResult          Outcome    `gorm:"type:varchar(16)" json:"borewell_result,omitempty"`
	UserSettlementProcessed bool       `json:"user_settlement_processed"`
	UserProcessedAt         *time.Time `json:"user_processed_at,omitempty"`
	ProcessedBy             *uint      `json:"processed_by,omitempty"`
	Notes                   string     `json:"notes,omitempty"`
	EntryID                 *uint      `json:"entry_id,omitempty"`
	Failed                  bool       `json:"failed"`
	ErrorMessage            string     `json:"error_message,omitempty"`
	FailedEntryID           *uint      `json:"failed_entry_id,omitempty"`
}

// Cancellation records why and by whom a booking was cancelled.
type Cancellation struct {
	Reason        string     `json:"reason,omitempty"`
	RefundAmount  float64    `json:"refund_amount"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy   *uint      `json:"cancelled_by,omitempty"`
	EntryID       *uint      `json:"entry_id,omitempty"`
	Failed        bool       `json:"failed"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	FailedEntryID *uint      `json:"failed_entry_id,omitempty"`
}

// Booking is the settlement-relevant part of a booking record. The
// settlement service is the only writer of the status tracks and sub-documents.
type Booking struct {
	ID                   uint                 `gorm:"primarykey" json:"id"`
	UserID               uint                 `gorm:"not null;index" json:"user_id"`
	VendorID             uint                 `gorm:"not null;index" json:"vendor_id"`
	BaseServiceFee       float64              `gorm:"not null" json:"base_service_fee"`
	TravelCharges        float64              `gorm:"not null;default:0" json:"travel_charges"`
	TotalAmount          float64              `gorm:"not null" json:"total_amount"`
	PaidAmount           float64              `gorm:"not null;default:0" json:"paid_amount"`
	RemainingAmount      float64              `gorm:"not null;default:0" json:"remaining_amount"`
	Status               BookingStatus        `gorm:"type:varchar(24);not null;index" json:"status"`
	UserStatus           UserStatus           `gorm:"type:varchar(24);not null" json:"user_status"`
	VendorStatus         VendorStatus         `gorm:"type:varchar(32);not null" json:"vendor_status"`
	Report               Report               `gorm:"embedded;embeddedPrefix:report_" json:"report"`
	ReportPayout         ReportPayout         `gorm:"embedded;embeddedPrefix:report_payout_" json:"report_payout"`
	FirstInstallment     FirstInstallment     `gorm:"embedded;embeddedPrefix:first_installment_" json:"first_installment"`
	TravelChargesRequest TravelChargesRequest `gorm:"embedded;embeddedPrefix:travel_request_" json:"travel_charges_request"`
	FieldResult          FieldResult          `gorm:"embedded;embeddedPrefix:field_result_" json:"field_result"`
	VendorSettlement     VendorSettlement     `gorm:"embedded;embeddedPrefix:vendor_settlement_" json:"vendor_settlement"`
	FinalSettlement      FinalSettlement      `gorm:"embedded;embeddedPrefix:final_settlement_" json:"final_settlement"`
	Cancellation         Cancellation         `gorm:"embedded;embeddedPrefix:cancellation_" json:"cancellation"`
	Version              int64                `gorm:"not null;default:0" json:"version"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// VendorParty returns the vendor's wallet owner reference.
func (b *Booking) VendorParty() PartyRef { return Vendor(b.VendorID) }

// UserParty returns the user's wallet owner reference.
func (b *Booking) UserParty() PartyRef { return User(b.UserID) }

// VendorSettled reports whether the vendor's final settlement is recorded.
func (b *Booking) VendorSettled() bool {
	return b.VendorSettlement.Status == StepCompleted
}

// UserSettled reports whether the user's final settlement is recorded.
func (b *Booking) UserSettled() bool {
	return b.FinalSettlement.UserSettlementProcessed
}
