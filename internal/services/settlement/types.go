package settlement

import (
	"context"

	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"
	"borewell/internal/services/retry"
)

// Retry job steps. They name the booking sub-field a FAILED entry belongs to.
const (
	StepReportCredit       = "report_credit"
	StepReportFee          = "report_fee"
	StepTravelCharges      = "travel_charges"
	StepVendorSettlement   = "vendor_settlement"
	StepUserRefund         = "user_refund"
	StepCancellationRefund = "cancellation_refund"
)

// BookingInput opens a booking.
type BookingInput struct {
	UserID         uint    `json:"user_id"`
	VendorID       uint    `json:"vendor_id"`
	BaseServiceFee float64 `json:"base_service_fee"`
	TravelCharges  float64 `json:"travel_charges"`
	PaidAmount     float64 `json:"paid_amount"`
}

// VendorSettlementInput is the admin's reward or penalty for the vendor.
type VendorSettlementInput struct {
	Reward  float64 `json:"reward_amount"`
	Penalty float64 `json:"penalty_amount"`
	Notes   string  `json:"notes"`
}

// UserSettlementInput is the admin's remittance to the user.
type UserSettlementInput struct {
	Remittance float64 `json:"remittance_amount"`
	Notes      string  `json:"notes"`
}

// CancelInput cancels a booking, optionally refunding the user.
type CancelInput struct {
	Reason string  `json:"reason"`
	Refund float64 `json:"refund_amount"`
}

// Ledger is the part of the wallet ledger the orchestrator posts to.
type Ledger interface {
	Credit(ctx context.Context, req ledger.Request) (*ledger.Result, error)
	Debit(ctx context.Context, req ledger.Request) (*ledger.Result, error)
	Entries(ctx context.Context, party models.PartyRef, filter repositories.EntryFilter) ([]models.LedgerEntry, int64, error)
}

// RetryScheduler queues a deferred retry of a FAILED entry.
type RetryScheduler interface {
	Schedule(ctx context.Context, req retry.ScheduleRequest) (*models.RetryJob, error)
}
