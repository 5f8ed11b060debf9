package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/seatflow/internal/booking"
	"github.com/iliyamo/seatflow/internal/inventory"
	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/pricing"
	"github.com/iliyamo/seatflow/internal/selection"
)

// View is one user's open seat map for one event.  It owns the inventory
// tracker, the selection and the booking controller; every operation on a
// view holds its mutex, so a view behaves like a single-threaded page.
type View struct {
	ID     string
	UserID string

	mu        sync.Mutex
	event     model.Event
	base      decimal.Decimal
	tracker   *inventory.Tracker
	selection *selection.Session
	booking   *booking.Controller
	lastUsed  time.Time
	closed    atomic.Bool
}

func (v *View) touch(now time.Time) { v.lastUsed = now }

// SeatView is a seat as rendered on the map.
type SeatView struct {
	pricing.Seat
	Status model.SeatStatus `json:"status"`
}

// SeatMap is the full render state of a view.
type SeatMap struct {
	ViewID      string               `json:"view_id"`
	Event       model.Event          `json:"event"`
	Tiers       []pricing.Tier       `json:"tiers"`
	Seats       []SeatView           `json:"seats"`
	Selected    []selection.Selected `json:"selected"`
	Total       decimal.Decimal      `json:"total"`
	RefreshedAt time.Time            `json:"refreshed_at"`
	Stale       bool                 `json:"stale"`
}

// seatMap renders the view.  Booked beats Locked beats Selected.  The
// caller holds v.mu.
func (v *View) seatMap() SeatMap {
	snap := v.tracker.Snapshot()
	seats := pricing.Seats(v.event.TotalSeats, v.base)
	out := make([]SeatView, 0, len(seats))
	for _, s := range seats {
		status := snap.Status(s.Label)
		if status == model.SeatAvailable && v.selection.Contains(s.Label) {
			status = model.SeatSelected
		}
		out = append(out, SeatView{Seat: s, Status: status})
	}
	return SeatMap{
		ViewID:      v.ID,
		Event:       v.event,
		Tiers:       pricing.Layout(v.event.TotalSeats, v.base),
		Seats:       out,
		Selected:    v.selection.Seats(),
		Total:       v.selection.TotalPrice(),
		RefreshedAt: snap.RefreshedAt,
		Stale:       v.tracker.Stale(),
	}
}

// ToggleResult reports the effect of a seat click.
type ToggleResult struct {
	SeatID   string               `json:"seat_id"`
	Changed  bool                 `json:"changed"`
	Status   model.SeatStatus     `json:"status"`
	Selected []selection.Selected `json:"selected"`
	Total    decimal.Decimal      `json:"total"`
}
