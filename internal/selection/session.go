// Package selection holds a user's tentative seat picks for one event
// before any booking exists.  A Session is owned by exactly one event view
// and is not safe for concurrent use; the view serializes access to it.
package selection

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/seatflow/internal/inventory"
	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/pricing"
)

// Availability exposes the latest inventory snapshot.  *inventory.Tracker
// satisfies it.
type Availability interface {
	Snapshot() inventory.Snapshot
}

// Selected is one picked seat.  TierName and Price are captured when the
// seat is picked and are never recomputed.
type Selected struct {
	SeatID   string          `json:"seat_id"`
	TierName string          `json:"tier"`
	Price    decimal.Decimal `json:"price"`
}

// Session is the ordered set of picked seats, keyed by seat ID.
type Session struct {
	eventID   string
	inventory Availability
	seats     []Selected
	index     map[string]int
}

// New returns an empty session for eventID validated against inv.
func New(eventID string, inv Availability) *Session {
	return &Session{
		eventID:   eventID,
		inventory: inv,
		index:     make(map[string]int),
	}
}

// EventID returns the event the picks belong to.
func (s *Session) EventID() string { return s.eventID }

// Toggle adds seatID with the given tier or removes it when already picked.
// Seats that are locked or booked in the latest inventory snapshot are
// left alone.  It reports whether the selection changed.
func (s *Session) Toggle(seatID string, tier pricing.Tier) bool {
	if seatID == "" {
		return false
	}
	if s.inventory != nil && s.inventory.Snapshot().Blocked(seatID) {
		return false
	}
	if i, ok := s.index[seatID]; ok {
		s.remove(i)
		return true
	}
	s.index[seatID] = len(s.seats)
	s.seats = append(s.seats, Selected{SeatID: seatID, TierName: tier.Name, Price: tier.Price})
	return true
}

func (s *Session) remove(i int) {
	delete(s.index, s.seats[i].SeatID)
	s.seats = append(s.seats[:i], s.seats[i+1:]...)
	for j := i; j < len(s.seats); j++ {
		s.index[s.seats[j].SeatID] = j
	}
}

// Contains reports whether seatID is picked.
func (s *Session) Contains(seatID string) bool {
	_, ok := s.index[seatID]
	return ok
}

// Len is the number of picked seats.
func (s *Session) Len() int { return len(s.seats) }

// Seats returns a copy of the picks in the order they were made.
func (s *Session) Seats() []Selected {
	return append([]Selected(nil), s.seats...)
}

// SeatIDs returns the picked seat IDs in the order they were made.
func (s *Session) SeatIDs() []string {
	out := make([]string, 0, len(s.seats))
	for _, sel := range s.seats {
		out = append(out, sel.SeatID)
	}
	return out
}

// TotalPrice sums the prices captured at pick time.
func (s *Session) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, sel := range s.seats {
		total = total.Add(sel.Price)
	}
	return total
}

// CommitGuard blocks the transition to booking when nothing is picked.
func (s *Session) CommitGuard() error {
	if len(s.seats) == 0 {
		return model.ErrEmptySelection
	}
	return nil
}

// Clear drops every pick.
func (s *Session) Clear() {
	s.seats = nil
	s.index = make(map[string]int)
}

// Snapshot is a frozen copy of a session taken right before a booking is
// submitted.
type Snapshot struct {
	EventID string
	Seats   []Selected
}

// Snapshot freezes the current picks.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{EventID: s.eventID, Seats: s.Seats()}
}

// SeatIDs returns the frozen seat IDs in pick order.
func (s Snapshot) SeatIDs() []string {
	out := make([]string, 0, len(s.Seats))
	for _, sel := range s.Seats {
		out = append(out, sel.SeatID)
	}
	return out
}

// TotalPrice sums the frozen prices.
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, sel := range s.Seats {
		total = total.Add(sel.Price)
	}
	return total
}
