package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/payment"
)

// checkout is the payment phase of one booking for one user.
type checkout struct {
	userID     string
	controller *payment.Controller

	mu      sync.Mutex
	booking model.Booking
	used    time.Time
}

func (c *checkout) lastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// existing returns the checkout of bookingID, or nil when there is none.
func (m *Manager) existing(userID, bookingID string) (*checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.checkouts[bookingID]
	if !ok {
		return nil, nil
	}
	if c.userID != userID {
		return nil, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}
	return c, nil
}

// register stores a checkout once its booking is known to belong to
// userID.  A checkout registered concurrently wins.
func (m *Manager) register(userID, bookingID string, ctrl *payment.Controller) (*checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.checkouts[bookingID]; ok {
		if c.userID != userID {
			return nil, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
		}
		return c, nil
	}
	c := &checkout{userID: userID, controller: ctrl, used: m.now()}
	m.checkouts[bookingID] = c
	return c, nil
}

// takeHandoff removes and returns the booking parked by Submit.  The
// handoff is good for one page load; later loads read the ledger.
func (m *Manager) takeHandoff(userID, bookingID string) *model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handoffs[bookingID]
	if !ok || h.userID != userID {
		return nil
	}
	delete(m.handoffs, bookingID)
	b := h.booking
	return &b
}

// Checkout resolves the booking a user is about to pay for.  The first
// load after Submit uses the in-memory handoff; any later load, such as a
// page reload, fetches the booking from the ledger.  Bookings of other
// users are reported as not found.
func (m *Manager) Checkout(ctx context.Context, userID, bookingID string) (model.Booking, error) {
	if userID == "" {
		return model.Booking{}, model.ErrMissingIdentity
	}
	c, err := m.existing(userID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	ctrl := payment.New(m.ledger, m.processor, m.reporter, m.logger)
	if c != nil {
		ctrl = c.controller
	}

	b, err := ctrl.ResolveBooking(ctx, bookingID, m.takeHandoff(userID, bookingID))
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != "" && b.UserID != userID {
		return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}
	if c == nil {
		if c, err = m.register(userID, bookingID, ctrl); err != nil {
			return model.Booking{}, err
		}
	}

	c.mu.Lock()
	c.booking = b
	c.used = m.now()
	c.mu.Unlock()
	return b.Clone(), nil
}

// Pay charges the booking of a checkout.  A booking that was never loaded
// in this process is resolved first.
func (m *Manager) Pay(ctx context.Context, userID, bookingID string, method model.PaymentMethod, payerEmail string) (payment.Outcome, error) {
	if userID == "" || strings.TrimSpace(payerEmail) == "" {
		return payment.Outcome{}, model.ErrMissingIdentity
	}
	if _, ok := model.ParsePaymentMethod(string(method)); !ok {
		return payment.Outcome{}, fmt.Errorf("%w: %q", model.ErrInvalidMethod, method)
	}
	c, err := m.existing(userID, bookingID)
	if err != nil {
		return payment.Outcome{}, err
	}
	if c == nil {
		if _, err := m.Checkout(ctx, userID, bookingID); err != nil {
			return payment.Outcome{}, err
		}
		if c, err = m.existing(userID, bookingID); err != nil || c == nil {
			return payment.Outcome{}, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
		}
	}

	c.mu.Lock()
	b := c.booking.Clone()
	c.used = m.now()
	c.mu.Unlock()

	out, err := c.controller.Pay(ctx, b, method, payerEmail)
	if err == nil || payment.IsInconsistency(err) {
		c.mu.Lock()
		c.booking = out.Booking.Clone()
		c.mu.Unlock()
	}
	return out, err
}

// PaymentState reports where a checkout stands.
func (m *Manager) PaymentState(userID, bookingID string) (payment.State, bool) {
	m.mu.Lock()
	c, ok := m.checkouts[bookingID]
	m.mu.Unlock()
	if !ok || c.userID != userID {
		return "", false
	}
	return c.controller.State(), true
}
