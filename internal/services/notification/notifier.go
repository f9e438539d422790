// Package notification delivers booking and withdrawal events to parties.
// Delivery is best effort: callers log notifier errors and never roll back
// the transition that produced the event.
package notification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"borewell/internal/models"

	"github.com/google/uuid"
)

// Event types
const (
	EventWithdrawalCreated   = "withdrawal.created"
	EventWithdrawalApproved  = "withdrawal.approved"
	EventWithdrawalRejected  = "withdrawal.rejected"
	EventWithdrawalProcessed = "withdrawal.processed"

	EventBookingCreated          = "booking.created"
	EventSiteVisited             = "booking.site_visited"
	EventReportUploaded          = "booking.report_uploaded"
	EventReportApproved          = "booking.report_approved"
	EventReportRejected          = "booking.report_rejected"
	EventFirstInstallmentPaid    = "booking.first_installment_paid"
	EventTravelChargesRequested  = "booking.travel_charges_requested"
	EventTravelChargesApproved   = "booking.travel_charges_approved"
	EventTravelChargesRejected   = "booking.travel_charges_rejected"
	EventFieldResultUploaded     = "booking.field_result_uploaded"
	EventFieldResultApproved     = "booking.field_result_approved"
	EventFieldResultRejected     = "booking.field_result_rejected"
	EventVendorSettlementDone    = "booking.vendor_settlement_processed"
	EventUserSettlementDone      = "booking.user_settlement_processed"
	EventBookingCompleted        = "booking.completed"
	EventBookingCancelled        = "booking.cancelled"
	EventSettlementPaymentFailed = "booking.settlement_payment_failed"
)

// Event is one notification addressed to a single party.
type Event struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Recipient    models.PartyRef   `json:"recipient"`
	BookingID    *uint             `json:"booking_id,omitempty"`
	WithdrawalID *uint             `json:"withdrawal_id,omitempty"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// NewEvent returns an event with a fresh id and timestamp.
func NewEvent(eventType string, recipient models.PartyRef, title, body string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Recipient: recipient,
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ForBooking sets the booking reference.
func (e Event) ForBooking(id uint) Event {
	e.BookingID = &id
	return e
}

// ForWithdrawal sets the withdrawal reference.
func (e Event) ForWithdrawal(id uint) Event {
	e.WithdrawalID = &id
	return e
}

// payload is the string map sent with push messages.
func (e Event) payload() map[string]string {
	data := map[string]string{
		"event_id": e.ID,
		"type":     e.Type,
	}
	if e.BookingID != nil {
		data["booking_id"] = strconv.FormatUint(uint64(*e.BookingID), 10)
	}
	if e.WithdrawalID != nil {
		data["withdrawal_id"] = strconv.FormatUint(uint64(*e.WithdrawalID), 10)
	}
	for k, v := range e.Data {
		data[k] = v
	}
	return data
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
