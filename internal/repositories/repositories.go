// Package repositories provides data access layer implementations.
// Every repository exposes ExecuteInTransaction, which hands the callback a
// repository bound to one database transaction.
package repositories

import (
	"errors"

	"borewell/internal/models"
)

// ErrVersionConflict is returned when an optimistic version check fails.
var ErrVersionConflict = errors.New("version conflict")

// EntryFilter narrows a ledger entry listing.
type EntryFilter struct {
	Type      models.TransactionType
	Status    models.EntryStatus
	BookingID *uint
	Limit     int
	Offset    int
}

// WithdrawalFilter narrows a withdrawal listing.
type WithdrawalFilter struct {
	Party  *models.PartyRef
	Status models.WithdrawalStatus
	Limit  int
	Offset int
}

// BookingFilter narrows a booking listing.
type BookingFilter struct {
	Status   models.BookingStatus
	VendorID uint
	UserID   uint
	Limit    int
	Offset   int
}

// RetryJobFilter narrows a retry job listing.
type RetryJobFilter struct {
	Status    models.RetryJobStatus
	BookingID *uint
	Limit     int
	Offset    int
}
