package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatflow/internal/model"
)

// eventsPath is where a client goes back to when its booking is gone.
const eventsPath = "/events"

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case model.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, model.ErrConfirmInconsistency):
		return http.StatusInternalServerError
	case model.IsFetchFailure(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}.  Unknown errors are not
// echoed back to the client.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	body := echo.Map{"error": err.Error()}
	if status == http.StatusInternalServerError && !errors.Is(err, model.ErrConfirmInconsistency) {
		c.Logger().Error(err)
		body["error"] = "internal error"
	}
	if errors.Is(err, model.ErrBookingNotFound) {
		body["redirect"] = eventsPath
	}
	return c.JSON(status, body)
}
