package client

import (
	"context"
	"net/http"

	"github.com/iliyamo/seatflow/internal/model"
)

// Payments is the payment processor client.
type Payments struct {
	endpoint
}

// NewPayments returns a processor client rooted at baseURL.
func NewPayments(baseURL string, opts Options) *Payments {
	return &Payments{endpoint: newEndpoint("payments", baseURL, opts)}
}

type chargeBody struct {
	BookingID     string `json:"bookingId"`
	PaymentMethod string `json:"paymentMethod"`
	UserEmail     string `json:"userEmail"`
}

// Charge submits a payment.  Any answer below 500 is returned as a result
// so the caller decides on it; only an explicit PAID on a 2xx is a success.
func (p *Payments) Charge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error) {
	resp, err := p.do(ctx, http.MethodPost, "/v1/payments", chargeBody{
		BookingID:     req.BookingID,
		PaymentMethod: string(req.Method),
		UserEmail:     req.PayerEmail,
	})
	if err != nil {
		return model.ChargeResult{}, err
	}
	return NormalizeCharge(resp.status, resp.body), nil
}
