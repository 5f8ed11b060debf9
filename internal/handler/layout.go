package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/pricing"
)

// EventSource reads events.
type EventSource interface {
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
}

// LayoutHandler serves the static, user independent part of a seat map.
type LayoutHandler struct {
	Events EventSource
}

func NewLayoutHandler(e EventSource) *LayoutHandler { return &LayoutHandler{Events: e} }

// Get handles GET /v1/events/:id/layout: the event with its tiers and every
// seat's label and price, without availability.
func (h *LayoutHandler) Get(c echo.Context) error {
	ev, err := h.Events.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	base := pricing.BasePrice(ev.PricePerSeat)
	return c.JSON(http.StatusOK, echo.Map{
		"event": ev,
		"tiers": pricing.Layout(ev.TotalSeats, base),
		"seats": pricing.Seats(ev.TotalSeats, base),
	})
}
