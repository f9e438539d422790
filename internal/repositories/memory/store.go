// Package memory implements the repositories in process memory. It backs
// the service tests and local runs without Postgres.
//
// Each aggregate has its own mutex. ExecuteInTransaction holds that mutex
// for the whole callback and restores a snapshot when the callback fails,
// so transactions on one aggregate are serialized and atomic.
package memory

import (
	"sync"
	"time"

	"borewell/internal/models"
)

// Operation names accepted by FailNext.
const (
	OpCreateAccount    = "ledger.CreateAccount"
	OpUpdateAccount    = "ledger.UpdateAccount"
	OpCreateEntry      = "ledger.CreateEntry"
	OpUpdateEntry      = "ledger.UpdateEntryRetryCount"
	OpCreateWithdrawal = "withdrawal.Create"
	OpUpdateWithdrawal = "withdrawal.Update"
	OpCreateBooking    = "booking.Create"
	OpUpdateBooking    = "booking.Update"
	OpCreateJob        = "retry.Create"
	OpUpdateJob        = "retry.Update"
)

// Store holds every aggregate.
type Store struct {
	faultMu sync.Mutex
	faults  map[string][]error

	ledgerMu      sync.Mutex
	accounts      map[models.PartyRef]models.WalletAccount
	entries       map[uint]models.LedgerEntry
	nextAccountID uint
	nextEntryID   uint

	withdrawalMu     sync.Mutex
	withdrawals      map[uint]models.WithdrawalRequest
	nextWithdrawalID uint

	bookingMu     sync.Mutex
	bookings      map[uint]models.Booking
	nextBookingID uint

	jobMu     sync.Mutex
	jobs      map[uint]models.RetryJob
	nextJobID uint

	deviceMu sync.Mutex
	devices  map[models.PartyRef]string

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		faults:      make(map[string][]error),
		accounts:    make(map[models.PartyRef]models.WalletAccount),
		entries:     make(map[uint]models.LedgerEntry),
		withdrawals: make(map[uint]models.WithdrawalRequest),
		bookings:    make(map[uint]models.Booking),
		jobs:        make(map[uint]models.RetryJob),
		devices:     make(map[models.PartyRef]string),
		now:         time.Now,
	}
}

// FailNext makes the next call of op return err. Calls queue up.
func (s *Store) FailNext(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	queue := s.faults[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	s.faults[op] = queue[1:]
	return err
}

// Ledger returns the ledger repository view of the store.
func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{s: s}
}

// Withdrawals returns the withdrawal repository view of the store.
func (s *Store) Withdrawals() *WithdrawalRepository {
	return &WithdrawalRepository{s: s}
}

// Bookings returns the booking repository view of the store.
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{s: s}
}

// RetryJobs returns the retry job repository view of the store.
func (s *Store) RetryJobs() *RetryJobRepository {
	return &RetryJobRepository{s: s}
}

// Devices returns the device repository view of the store.
func (s *Store) Devices() *DeviceRepository {
	return &DeviceRepository{s: s}
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// unlocker returns the unlock func for mu, or a no-op inside a transaction.
func unlocker(mu *sync.Mutex, inTx bool) func() {
	if inTx {
		return func() {}
	}
	mu.Lock()
	return mu.Unlock
}
