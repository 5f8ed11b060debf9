package model

import "github.com/shopspring/decimal"

// BookingStatus mirrors the lifecycle the ledger records for a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// BookedSeat is a seat inside a booking together with the price that was
// charged for it at booking time.  Prices are never recomputed from the
// current tier layout once a booking exists.
type BookedSeat struct {
	SeatID string          `json:"seat_id"`
	Price  decimal.Decimal `json:"price"`
}

// BookingRequest is what the booking controller sends to the ledger.
// TotalCost is advisory; the ledger records its own amount.
type BookingRequest struct {
	EventID   string
	UserID    string
	SeatIDs   []string
	TotalCost decimal.Decimal
}

// Booking records a user's committed seats for one event.  It is created
// once by the ledger and is immutable afterwards except for Confirmed,
// which the payment controller sets after a successful charge.
type Booking struct {
	ID      string   `json:"id"`
	EventID string   `json:"event_id"`
	UserID  string   `json:"user_id"`
	SeatIDs []string `json:"seat_ids"` // in submission order
	// Seats may be empty for records read back from the ledger.
	Seats     []BookedSeat    `json:"seats,omitempty"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Status    BookingStatus   `json:"status,omitempty"`
	// Confirmed is set once payment succeeded and the ledger acknowledged it.
	Confirmed bool `json:"confirmed"`
}

// SeatTotal sums the recorded per-seat prices.
func (b Booking) SeatTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range b.Seats {
		total = total.Add(s.Price)
	}
	return total
}

// Clone returns a deep copy so a booking can be handed between phases by
// value without sharing slices.
func (b Booking) Clone() Booking {
	out := b
	if b.SeatIDs != nil {
		out.SeatIDs = append([]string(nil), b.SeatIDs...)
	}
	if b.Seats != nil {
		out.Seats = append([]BookedSeat(nil), b.Seats...)
	}
	return out
}
