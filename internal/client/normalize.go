package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/seatflow/internal/inventory"
	"github.com/iliyamo/seatflow/internal/model"
)

// Collaborators disagree on envelopes and field casing.  Every lookup below
// walks a fixed priority list so the same payload always normalizes the
// same way.
var (
	eventEnvelopes   = []string{"showEvent", "show_event", "event", "data"}
	bookingEnvelopes = []string{"booking", "data"}
	paymentEnvelopes = []string{"payment", "data"}

	totalSeatsKeys   = []string{"total_seats", "totalSeats"}
	pricePerSeatKeys = []string{"price_per_seat", "pricePerSeat"}
	seatIDListKeys   = []string{"seatIds", "seat_ids"}
	seatIDKeys       = []string{"seatId", "seat_id", "id"}
	totalCostKeys    = []string{"totalCost", "total_cost"}
	eventIDKeys      = []string{"event_id", "eventId", "show_event_id"}
	userIDKeys       = []string{"user_id", "userId"}
	referenceKeys    = []string{"id", "paymentId", "payment_id", "reference"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

type object map[string]any

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj object
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", model.ErrFetchFailure, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: empty response", model.ErrFetchFailure)
	}
	return obj, nil
}

// envelope returns the first nested object named by keys, or the object
// itself when it carries an id.
func (o object) envelope(keys ...string) (object, bool) {
	for _, k := range keys {
		if inner, ok := o[k].(map[string]any); ok {
			return object(inner), true
		}
	}
	if _, ok := o["id"]; ok {
		return o, true
	}
	return nil, false
}

func (o object) first(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(keys ...string) string {
	v, _ := o.first(keys...)
	return asString(v)
}

func (o object) integer(keys ...string) (int, bool) {
	for _, k := range keys {
		if n, ok := asInt(o[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func (o object) amount(keys ...string) decimal.Decimal {
	for _, k := range keys {
		if d, ok := asDecimal(o[k]); ok && !d.IsZero() {
			return d
		}
	}
	return decimal.Zero
}

// asString renders ids that may arrive as strings or numbers.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	case float64:
		return int(t), true
	}
	return 0, false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	}
	return decimal.Zero, false
}

func asTime(v any) time.Time {
	s := asString(v)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func asStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeEvent extracts an event from a catalog response.
func NormalizeEvent(raw []byte) (model.Event, error) {
	root, err := decodeObject(raw)
	if err != nil {
		return model.Event{}, err
	}
	obj, ok := root.envelope(eventEnvelopes...)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: event payload has no recognizable envelope", model.ErrFetchFailure)
	}

	ev := model.Event{
		ID:          obj.str("id"),
		Title:       obj.str("title", "name"),
		Description: obj.str("description"),
		Date:        asTime(obj.str("date", "event_date", "start_time")),
	}
	ev.TotalSeats, _ = obj.integer(totalSeatsKeys...)
	ev.PricePerSeat = obj.amount(pricePerSeatKeys...)
	return ev, nil
}

// NormalizeSeatIDs extracts a seat id list from a locked/booked seats
// response.  An absent list is an empty set.
func NormalizeSeatIDs(raw []byte) ([]string, error) {
	root, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	v, _ := root.first(seatIDListKeys...)
	if v == nil {
		if inner, ok := root["data"].(map[string]any); ok {
			v, _ = object(inner).first(seatIDListKeys...)
		}
	}
	return inventory.NormalizeSeatIDs(asStrings(v)), nil
}

// NormalizeBooking extracts a booking from a ledger response.  A missing
// total is derived from the booking's own per-seat prices.
func NormalizeBooking(raw []byte) (model.Booking, error) {
	root, err := decodeObject(raw)
	if err != nil {
		return model.Booking{}, err
	}
	obj, ok := root.envelope(bookingEnvelopes...)
	if !ok {
		return model.Booking{}, fmt.Errorf("%w: booking payload has no recognizable envelope", model.ErrFetchFailure)
	}

	b := model.Booking{
		ID:      obj.str("id", "bookingId", "booking_id"),
		EventID: obj.str(eventIDKeys...),
		UserID:  obj.str(userIDKeys...),
		Status:  model.BookingStatus(strings.ToUpper(obj.str("status"))),
	}

	if seats, ok := obj["seats"].([]any); ok {
		for _, item := range seats {
			switch s := item.(type) {
			case map[string]any:
				seat := object(s)
				id := seat.str(seatIDKeys...)
				if id == "" {
					continue
				}
				price, _ := asDecimal(seat["price"])
				b.Seats = append(b.Seats, model.BookedSeat{SeatID: id, Price: price})
				b.SeatIDs = append(b.SeatIDs, id)
			default:
				if id := asString(s); id != "" {
					b.SeatIDs = append(b.SeatIDs, id)
				}
			}
		}
	}
	if len(b.SeatIDs) == 0 {
		v, _ := obj.first(seatIDListKeys...)
		b.SeatIDs = asStrings(v)
	}

	b.TotalCost = obj.amount(totalCostKeys...)
	if b.TotalCost.IsZero() {
		b.TotalCost = b.SeatTotal()
	}
	b.Confirmed = b.Status == model.BookingConfirmed
	return b, nil
}

// NormalizeCharge extracts the processor's verdict.  The transport status
// is carried separately by the caller.
func NormalizeCharge(status int, raw []byte) model.ChargeResult {
	res := model.ChargeResult{HTTPStatus: status}
	root, err := decodeObject(raw)
	if err != nil {
		return res
	}
	obj := root
	if inner, ok := root.envelope(paymentEnvelopes...); ok {
		obj = inner
	}
	res.Status = strings.ToUpper(obj.str("status"))
	if res.Status == "" {
		res.Status = strings.ToUpper(root.str("status"))
	}
	res.Reference = obj.str(referenceKeys...)
	return res
}

// errorReply reports the message of a structured error body, such as
// {"code":500,"message":"seat already taken"}.  An answer carrying one came
// from the collaborator's own handlers rather than from a proxy or a crash.
func errorReply(raw []byte) (string, bool) {
	root, err := decodeObject(raw)
	if err != nil {
		return "", false
	}
	msg := strings.TrimSpace(root.str("message", "error", "detail"))
	return msg, msg != ""
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(raw []byte) string {
	root, err := decodeObject(raw)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	return root.str("error", "message", "detail")
}
