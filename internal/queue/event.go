// Package queue defines the messages exchanged over RabbitMQ and the
// consumer that writes them to the booking audit log.
package queue

import (
	"time"

	"github.com/iliyamo/seatflow/internal/model"
)

// Queue names.
const (
	BookingConfirmedQueue     = "booking.confirmed"
	PaymentInconsistencyQueue = "payment.inconsistency"
)

// BookingConfirmedEvent is published once a booking has been paid for and
// the ledger acknowledged the confirmation.  It carries enough for a
// notifier or an audit trail without reading the ledger again.
type BookingConfirmedEvent struct {
	MessageID        string   `json:"message_id"`
	BookingID        string   `json:"booking_id"`
	EventID          string   `json:"event_id"`
	UserID           string   `json:"user_id"`
	SeatIDs          []string `json:"seats"`
	TotalCost        string   `json:"total_cost"`
	PaymentMethod    string   `json:"payment_method"`
	PaymentReference string   `json:"payment_reference,omitempty"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// PaymentInconsistencyEvent is published when a charge went through but the
// ledger did not record the confirmation.  Someone has to reconcile it by
// hand.
type PaymentInconsistencyEvent struct {
	MessageID        string   `json:"message_id"`
	BookingID        string   `json:"booking_id"`
	EventID          string   `json:"event_id"`
	UserID           string   `json:"user_id"`
	SeatIDs          []string `json:"seats"`
	TotalCost        string   `json:"total_cost"`
	PaymentMethod    string   `json:"payment_method"`
	PaymentReference string   `json:"payment_reference,omitempty"`
	Cause            string   `json:"cause"`
	DetectedAt       string   `json:"detected_at"`
}

// NewBookingConfirmed builds the confirmation message for a paid booking.
func NewBookingConfirmed(id string, b model.Booking, p model.Payment, at time.Time) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		MessageID:        id,
		BookingID:        b.ID,
		EventID:          b.EventID,
		UserID:           b.UserID,
		SeatIDs:          append([]string(nil), b.SeatIDs...),
		TotalCost:        b.TotalCost.StringFixed(2),
		PaymentMethod:    string(p.Method),
		PaymentReference: p.Reference,
		ConfirmedAt:      at.UTC().Format(time.RFC3339),
	}
}

// NewPaymentInconsistency builds the alert for a charged but unconfirmed
// booking.
func NewPaymentInconsistency(id string, b model.Booking, p model.Payment, cause error, at time.Time) PaymentInconsistencyEvent {
	ev := PaymentInconsistencyEvent{
		MessageID:        id,
		BookingID:        b.ID,
		EventID:          b.EventID,
		UserID:           b.UserID,
		SeatIDs:          append([]string(nil), b.SeatIDs...),
		TotalCost:        b.TotalCost.StringFixed(2),
		PaymentMethod:    string(p.Method),
		PaymentReference: p.Reference,
		DetectedAt:       at.UTC().Format(time.RFC3339),
	}
	if cause != nil {
		ev.Cause = cause.Error()
	}
	return ev
}
