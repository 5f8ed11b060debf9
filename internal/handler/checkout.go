package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatflow/internal/middleware"
	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/payment"
)

// Checkouts is the payment side of the session manager.
type Checkouts interface {
	Checkout(ctx context.Context, userID, bookingID string) (model.Booking, error)
	Pay(ctx context.Context, userID, bookingID string, method model.PaymentMethod, payerEmail string) (payment.Outcome, error)
	PaymentState(userID, bookingID string) (payment.State, bool)
}

// CheckoutHandler serves the payment page.
type CheckoutHandler struct {
	Checkouts Checkouts
}

func NewCheckoutHandler(c Checkouts) *CheckoutHandler { return &CheckoutHandler{Checkouts: c} }

var paymentMethods = []model.PaymentMethod{model.MethodCard, model.MethodUPI}

// Get handles GET /v1/checkout/:id.  It works both right after booking and
// after a reload.
func (h *CheckoutHandler) Get(c echo.Context) error {
	uid := middleware.UserID(c)
	b, err := h.Checkouts.Checkout(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	state, _ := h.Checkouts.PaymentState(uid, b.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"booking": b,
		"state":   state,
		"methods": paymentMethods,
	})
}

type payRequest struct {
	Method string `json:"method"`
	Email  string `json:"email"`
}

// Pay handles POST /v1/checkout/:id/pay.  The payer email defaults to the
// email claim of the token.
func (h *CheckoutHandler) Pay(c echo.Context) error {
	var body payRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := body.Email
	if email == "" {
		email = middleware.Email(c)
	}

	out, err := h.Checkouts.Pay(c.Request().Context(), middleware.UserID(c), c.Param("id"), model.PaymentMethod(body.Method), email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, out)
	case errors.Is(err, model.ErrConfirmInconsistency):
		// The charge went through; the client must not offer a retry.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   err.Error(),
			"payment": out.Payment,
			"booking": out.Booking,
		})
	case errors.Is(err, model.ErrPaymentDeclined):
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":   err.Error(),
			"payment": out.Payment,
		})
	}
	return respondError(c, err)
}
