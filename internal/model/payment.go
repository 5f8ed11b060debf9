package model

import "strings"

// PaymentMethod is the instrument a payer chose.
type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
)

// ParsePaymentMethod normalizes user input into a known method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCard, MethodUPI:
		return m, true
	}
	return "", false
}

// PaymentStatus is the result of a charge attempt.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment exists only while a booking is being paid for.  Once resolved its
// outcome is reflected on Booking.Confirmed and the payment is dropped.
type Payment struct {
	BookingID string        `json:"booking_id"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
}

// ChargeRequest is sent to the payment processor.
type ChargeRequest struct {
	BookingID  string
	Method     PaymentMethod
	PayerEmail string
}

// ChargeResult is the processor's answer.  HTTPStatus is the transport
// level status code and Status the processor-reported payment status.
type ChargeResult struct {
	HTTPStatus int
	Status     string
	Reference  string
}

// Paid reports whether the processor explicitly marked the charge as paid
// on a successful response.  Every other combination is a failure.
func (r ChargeResult) Paid() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300 && strings.EqualFold(r.Status, string(PaymentPaid))
}
