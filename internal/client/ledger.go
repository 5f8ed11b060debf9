package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iliyamo/seatflow/internal/model"
)

// Ledger is the booking ledger client.  It serves the inventory tracker,
// the booking controller and the payment controller.
type Ledger struct {
	endpoint
}

// NewLedger returns a ledger client rooted at baseURL.
func NewLedger(baseURL string, opts Options) *Ledger {
	return &Ledger{endpoint: newEndpoint("ledger", baseURL, opts)}
}

// LockedSeats returns the seats currently held by other sessions.
func (l *Ledger) LockedSeats(ctx context.Context, eventID string) ([]string, error) {
	return l.seatSet(ctx, eventID, "locked-seats")
}

// BookedSeats returns the seats already sold.
func (l *Ledger) BookedSeats(ctx context.Context, eventID string) ([]string, error) {
	return l.seatSet(ctx, eventID, "booked-seats")
}

func (l *Ledger) seatSet(ctx context.Context, eventID, kind string) ([]string, error) {
	resp, err := l.do(ctx, http.MethodGet, "/events/"+url.PathEscape(eventID)+"/"+kind, nil)
	if err != nil {
		return nil, err
	}
	if !ok(resp.status) {
		return nil, &fetchError{collaborator: l.name, status: resp.status}
	}
	return NormalizeSeatIDs(resp.body)
}

type createBookingBody struct {
	EventID   string   `json:"event_id"`
	UserID    string   `json:"user_id"`
	SeatIDs   []string `json:"seat_ids"`
	TotalCost string   `json:"totalCost"`
}

// CreateBooking asks the ledger to commit seats.  Conflicts, validation
// answers and any error reply with a message are rejections; the ledger
// reports a taken seat as a 500 with {"message":"seat already taken"}.
// The selection has to change before a new attempt.
func (l *Ledger) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	resp, err := l.do(ctx, http.MethodPost, "/v1/bookings", createBookingBody{
		EventID:   req.EventID,
		UserID:    req.UserID,
		SeatIDs:   req.SeatIDs,
		TotalCost: req.TotalCost.String(),
	})
	if err != nil {
		return model.Booking{}, err
	}

	if !ok(resp.status) {
		if msg, replied := errorReply(resp.body); replied {
			return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingRejected, msg)
		}
		switch resp.status {
		case http.StatusConflict, http.StatusBadRequest, http.StatusUnprocessableEntity:
			if msg := errorMessage(resp.body); msg != "" {
				return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingRejected, msg)
			}
			return model.Booking{}, model.ErrBookingRejected
		}
		return model.Booking{}, &fetchError{collaborator: l.name, status: resp.status}
	}

	b, err := NormalizeBooking(resp.body)
	if err != nil {
		return model.Booking{}, err
	}
	if b.EventID == "" {
		b.EventID = req.EventID
	}
	if b.UserID == "" {
		b.UserID = req.UserID
	}
	return b, nil
}

// GetBooking reads a booking back, as after a reload of the payment page.
// Any answer other than a booking means there is nothing to pay for; the
// ledger reports a missing booking as a 500 "record not found".  Only
// transport failures stay FetchFailure.
func (l *Ledger) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	resp, err := l.do(ctx, http.MethodGet, "/v1/bookings/"+url.PathEscape(bookingID), nil)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok(resp.status) {
		if msg, replied := errorReply(resp.body); replied {
			return model.Booking{}, fmt.Errorf("%w: %s: %s", model.ErrBookingNotFound, bookingID, msg)
		}
		return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}

	b, err := NormalizeBooking(resp.body)
	if err != nil {
		return model.Booking{}, err
	}
	if b.ID == "" {
		return model.Booking{}, fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}
	return b, nil
}

// ConfirmBooking marks a paid booking as confirmed.
func (l *Ledger) ConfirmBooking(ctx context.Context, bookingID string) error {
	resp, err := l.do(ctx, http.MethodPut, "/v1/bookings/"+url.PathEscape(bookingID)+"/confirm", nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", model.ErrBookingNotFound, bookingID)
	}
	if !ok(resp.status) {
		return &fetchError{collaborator: l.name, status: resp.status}
	}
	return nil
}
