package retry

import (
	"context"
	"time"

	"borewell/internal/models"
	"borewell/internal/services/ledger"
)

const (
	DefaultDelay       = 5 * time.Minute
	DefaultMaxAttempts = 3
	DefaultInterval    = 30 * time.Second
	DefaultBatchSize   = 20
	DefaultRatePerSec  = 5.0
	DefaultLease       = 10 * time.Minute
)

// Config controls how failed ledger entries are retried.
type Config struct {
	Delay       time.Duration
	MaxAttempts int
	// Lease is how long a job may stay RUNNING before it is claimed again.
	Lease time.Duration
}

// WorkerConfig controls the polling worker.
type WorkerConfig struct {
	Interval   time.Duration
	RatePerSec float64
	BatchSize  int
}

// ScheduleRequest names the FAILED entry to retry and the settlement step
// it belongs to.
type ScheduleRequest struct {
	EntryID   uint
	BookingID *uint
	Step      string
}

// Ledger is the part of the wallet ledger the jobs drive.
type Ledger interface {
	Retry(ctx context.Context, failedEntryID uint) (*ledger.Result, error)
	RecoveredBy(ctx context.Context, failedEntryID uint) (*models.LedgerEntry, error)
}

// RecoveryListener is told when a job recovered a FAILED entry that belongs
// to a booking.
type RecoveryListener interface {
	MarkRecovered(ctx context.Context, bookingID, failedEntryID, resultEntryID uint) error
}
