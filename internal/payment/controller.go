// Package payment drives a booking through payment and confirmation.  The
// phase can start from an in-memory handoff or, after a reload, from nothing
// but a booking id; both paths go through ResolveBooking.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/model"
)

// Ledger is the part of the booking ledger the payment phase uses.
type Ledger interface {
	GetBooking(ctx context.Context, bookingID string) (model.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID string) error
}

// Processor charges a booking.
type Processor interface {
	Charge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error)
}

// Reporter publishes the outcome of a paid booking for downstream
// consumers.  ConfirmInconsistency is raised when the payer was charged but
// the ledger did not record the confirmation.
type Reporter interface {
	BookingConfirmed(ctx context.Context, b model.Booking, p model.Payment) error
	ConfirmInconsistency(ctx context.Context, b model.Booking, p model.Payment, cause error) error
}

// Outcome is the result of one Pay call.
type Outcome struct {
	Payment model.Payment `json:"payment"`
	Booking model.Booking `json:"booking"`
}

// Controller owns the payment phase of one booking.
type Controller struct {
	ledger    Ledger
	processor Processor
	reporter  Reporter
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// New returns a controller waiting for payment input.  A nil reporter
// disables publishing.
func New(ledger Ledger, processor Processor, reporter Reporter, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		ledger:    ledger,
		processor: processor,
		reporter:  reporter,
		logger:    logger,
		state:     AwaitingInput,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) transition(to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(to)
}

func (c *Controller) transitionLocked(to State) error {
	if !canTransition(c.state, to) {
		return &transitionError{from: c.state, to: to}
	}
	c.state = to
	return nil
}

// ResolveBooking returns the booking to pay for.  A handoff whose id
// matches bookingID is used as is.  Otherwise the booking is fetched from
// the ledger; a missing booking yields model.ErrBookingNotFound and the
// caller goes back to the event list.  A fetched record without a total
// gets one from its own recorded seat prices, never from current tier
// pricing.
func (c *Controller) ResolveBooking(ctx context.Context, bookingID string, handoff *model.Booking) (model.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if handoff != nil && handoff.ID != "" && (bookingID == "" || handoff.ID == bookingID) {
		return handoff.Clone(), nil
	}
	if bookingID == "" {
		return model.Booking{}, fmt.Errorf("%w: missing booking id", model.ErrBookingNotFound)
	}

	b, err := c.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.ID == "" {
		return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}
	if !b.TotalCost.IsPositive() {
		b.TotalCost = b.SeatTotal()
	}
	if b.Status == model.BookingConfirmed {
		b.Confirmed = true
	}
	return b, nil
}

// Pay charges booking with method on behalf of payerEmail.  Only a
// successful response explicitly marked PAID counts; anything else is a
// decline that returns the controller to AwaitingInput so the payer can try
// another method.  A successful charge is followed by the ledger
// confirmation.  If that confirmation fails the payment is not rolled back:
// the error wraps model.ErrConfirmInconsistency, the Outcome still reports
// the payment as paid, and the inconsistency is reported separately.
func (c *Controller) Pay(ctx context.Context, booking model.Booking, method model.PaymentMethod, payerEmail string) (Outcome, error) {
	if booking.ID == "" {
		return Outcome{}, fmt.Errorf("%w: missing booking id", model.ErrBookingNotFound)
	}
	m, ok := model.ParsePaymentMethod(string(method))
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", model.ErrInvalidMethod, method)
	}
	method = m
	payerEmail = strings.TrimSpace(payerEmail)
	if payerEmail == "" {
		return Outcome{}, fmt.Errorf("%w: payer email is required", model.ErrMissingIdentity)
	}

	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return Outcome{}, model.ErrPaymentInProgress
	case Succeeded:
		c.mu.Unlock()
		return Outcome{}, model.ErrAlreadyPaid
	}
	if err := c.transitionLocked(Submitting); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	c.mu.Unlock()

	log := c.logger.With(zap.String("booking_id", booking.ID), zap.String("method", string(method)))
	p := model.Payment{BookingID: booking.ID, Method: method, Status: model.PaymentPending}

	res, err := c.processor.Charge(ctx, model.ChargeRequest{
		BookingID:  booking.ID,
		Method:     method,
		PayerEmail: payerEmail,
	})
	p.Reference = res.Reference
	if err != nil || !res.Paid() {
		_ = c.transition(Failed)
		_ = c.transition(AwaitingInput)
		p.Status = model.PaymentFailed
		cause := err
		if cause == nil {
			cause = fmt.Errorf("processor returned status %q (http %d)", res.Status, res.HTTPStatus)
		}
		log.Info("payment declined", zap.Error(cause))
		return Outcome{Payment: p, Booking: booking.Clone()}, fmt.Errorf("%w: %w", model.ErrPaymentDeclined, cause)
	}

	_ = c.transition(Succeeded)
	p.Status = model.PaymentPaid
	paid := booking.Clone()

	if err := c.ledger.ConfirmBooking(ctx, booking.ID); err != nil {
		log.Error("payment captured but booking confirmation failed",
			zap.String("payment_reference", p.Reference),
			zap.Error(err))
		if c.reporter != nil {
			if rerr := c.reporter.ConfirmInconsistency(ctx, paid, p, err); rerr != nil {
				log.Error("could not report confirmation inconsistency", zap.Error(rerr))
			}
		}
		return Outcome{Payment: p, Booking: paid}, fmt.Errorf("%w: booking %s: %w", model.ErrConfirmInconsistency, booking.ID, err)
	}

	paid.Confirmed = true
	paid.Status = model.BookingConfirmed
	log.Info("booking paid and confirmed", zap.String("total", paid.TotalCost.String()))
	if c.reporter != nil {
		if err := c.reporter.BookingConfirmed(ctx, paid, p); err != nil {
			log.Warn("could not publish booking confirmation", zap.Error(err))
		}
	}
	return Outcome{Payment: p, Booking: paid}, nil
}

// IsInconsistency reports whether err means the payer was charged without
// a recorded confirmation.
func IsInconsistency(err error) bool {
	return errors.Is(err, model.ErrConfirmInconsistency)
}
