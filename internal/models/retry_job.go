package models

import "time"

// RetryJobStatus is the lifecycle of a deferred ledger retry.
type RetryJobStatus string

const (
	RetryQueued    RetryJobStatus = "QUEUED"
	RetryRunning   RetryJobStatus = "RUNNING"
	RetrySucceeded RetryJobStatus = "SUCCEEDED"
	RetryExhausted RetryJobStatus = "EXHAUSTED"
	RetryAbandoned RetryJobStatus = "ABANDONED"
)

// Active reports whether the job may still run.
func (s RetryJobStatus) Active() bool {
	return s == RetryQueued || s == RetryRunning
}

// RetryJob is an operator-visible deferred retry of one FAILED ledger entry.
type RetryJob struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	LedgerEntryID uint           `gorm:"not null;index" json:"ledger_entry_id"`
	BookingID     *uint          `gorm:"index" json:"booking_id,omitempty"`
	Step          string         `gorm:"type:varchar(40)" json:"step"`
	Status        RetryJobStatus `gorm:"type:varchar(16);not null;index:idx_retry_due" json:"status"`
	Attempts      int            `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts   int            `gorm:"not null" json:"max_attempts"`
	NextRunAt     time.Time      `gorm:"not null;index:idx_retry_due" json:"next_run_at"`
	LastError     string         `json:"last_error,omitempty"`
	ResultEntryID *uint          `json:"result_entry_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
