// Package booking turns a validated seat selection into a ledger booking.
// The ledger is the only tie-breaker between sessions racing for the same
// seat; a rejection is final for the submitted selection and is never
// retried here.
package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/selection"
)

// Ledger creates bookings.
type Ledger interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error)
}

// State of a controller.  BookingCreated is terminal; the payment phase
// owns the booking from there.
type State int

const (
	NoBooking State = iota
	BookingCreated
)

func (s State) String() string {
	if s == BookingCreated {
		return "booking_created"
	}
	return "no_booking"
}

// Controller submits one booking.
type Controller struct {
	ledger Ledger
	logger *zap.Logger

	mu         sync.Mutex
	state      State
	submitting bool
	booking    model.Booking
}

// New returns a controller in the NoBooking state.
func New(ledger Ledger, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{ledger: ledger, logger: logger}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Booking returns the created booking, if any.
func (c *Controller) Booking() (model.Booking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != BookingCreated {
		return model.Booking{}, false
	}
	return c.booking.Clone(), true
}

// Submit sends the frozen selection to the ledger.  Validation happens
// before any network call.  On success the returned booking carries the
// ledger's identifier, the per-seat prices captured at selection time and
// the locally computed total; that total is a display value and payment
// always charges the amount the ledger recorded.
//
// Errors wrap model.ErrBookingRejected when the ledger refused the seats
// and model.ErrFetchFailure when it could not be reached.  After a
// rejection the caller must go back to seat selection.
func (c *Controller) Submit(ctx context.Context, eventID, userID string, sel selection.Snapshot) (model.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Booking{}, model.ErrMissingIdentity
	}
	if strings.TrimSpace(eventID) == "" {
		return model.Booking{}, fmt.Errorf("%w: missing event id", model.ErrInvalidEvent)
	}
	if len(sel.Seats) == 0 {
		return model.Booking{}, model.ErrEmptySelection
	}
	if sel.EventID != "" && sel.EventID != eventID {
		return model.Booking{}, fmt.Errorf("%w: selection belongs to event %s", model.ErrInvalidSeat, sel.EventID)
	}

	c.mu.Lock()
	if c.state == BookingCreated || c.submitting {
		c.mu.Unlock()
		return model.Booking{}, model.ErrAlreadySubmitted
	}
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	total := sel.TotalPrice()
	req := model.BookingRequest{
		EventID:   eventID,
		UserID:    userID,
		SeatIDs:   sel.SeatIDs(),
		TotalCost: total,
	}
	created, err := c.ledger.CreateBooking(ctx, req)
	if err != nil {
		c.logger.Info("booking not created",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Strings("seat_ids", req.SeatIDs),
			zap.Error(err))
		return model.Booking{}, err
	}
	if created.ID == "" {
		return model.Booking{}, fmt.Errorf("%w: ledger returned a booking without id", model.ErrFetchFailure)
	}

	b := assemble(created, req, sel)
	if !sameSeats(created.SeatIDs, req.SeatIDs) && len(created.SeatIDs) > 0 {
		c.logger.Warn("ledger booking seats differ from submitted selection",
			zap.String("booking_id", b.ID),
			zap.Strings("submitted", req.SeatIDs),
			zap.Strings("recorded", created.SeatIDs))
	}

	c.mu.Lock()
	c.state = BookingCreated
	c.booking = b
	c.mu.Unlock()

	c.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int("seats", len(b.SeatIDs)),
		zap.String("total", b.TotalCost.String()))
	return b.Clone(), nil
}

// assemble merges the ledger record with what was submitted.  Seat prices
// come from the selection; the total attached is the local one.
func assemble(created model.Booking, req model.BookingRequest, sel selection.Snapshot) model.Booking {
	b := created.Clone()
	if b.EventID == "" {
		b.EventID = req.EventID
	}
	if b.UserID == "" {
		b.UserID = req.UserID
	}
	if len(b.SeatIDs) == 0 {
		b.SeatIDs = append([]string(nil), req.SeatIDs...)
	}
	b.Seats = make([]model.BookedSeat, 0, len(sel.Seats))
	for _, s := range sel.Seats {
		b.Seats = append(b.Seats, model.BookedSeat{SeatID: s.SeatID, Price: s.Price})
	}
	b.TotalCost = req.TotalCost
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	b.Confirmed = false
	return b
}

func sameSeats(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
