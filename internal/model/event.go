package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event describes a show as published by the event catalog.  An event is
// fetched once when a user opens its seat map and is treated as immutable
// for the lifetime of that view; it is only re-read on an explicit reload.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	TotalSeats  int       `json:"total_seats"`
	// PricePerSeat is the base (Silver) price.
	PricePerSeat decimal.Decimal `json:"price_per_seat"`
}

// Validate reports whether the event can back a seat map.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if e.TotalSeats <= 0 {
		return fmt.Errorf("%w: event %s has %d seats", ErrInvalidEvent, e.ID, e.TotalSeats)
	}
	if e.PricePerSeat.IsNegative() {
		return fmt.Errorf("%w: event %s has a negative seat price", ErrInvalidEvent, e.ID)
	}
	return nil
}
