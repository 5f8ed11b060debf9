package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatflow/internal/middleware"
	"github.com/iliyamo/seatflow/internal/model"
	"github.com/iliyamo/seatflow/internal/session"
)

// Views is the seat-selection side of the session manager.
type Views interface {
	Open(ctx context.Context, userID, eventID string) (session.SeatMap, error)
	SeatMap(viewID, userID string) (session.SeatMap, error)
	Toggle(viewID, userID, label string) (session.ToggleResult, error)
	Reload(ctx context.Context, viewID, userID string) (session.SeatMap, error)
	Submit(ctx context.Context, viewID, userID string) (model.Booking, error)
	Close(viewID, userID string) error
}

// ViewHandler serves seat views.  Every route requires JWTAuth.
type ViewHandler struct {
	Views Views
}

func NewViewHandler(v Views) *ViewHandler { return &ViewHandler{Views: v} }

// Open handles POST /v1/events/:id/views.
func (h *ViewHandler) Open(c echo.Context) error {
	m, err := h.Views.Open(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Get handles GET /v1/views/:id.
func (h *ViewHandler) Get(c echo.Context) error {
	m, err := h.Views.SeatMap(c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Toggle handles POST /v1/views/:id/seats/:label/toggle.
func (h *ViewHandler) Toggle(c echo.Context) error {
	res, err := h.Views.Toggle(c.Param("id"), middleware.UserID(c), c.Param("label"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Reload handles POST /v1/views/:id/reload.
func (h *ViewHandler) Reload(c echo.Context) error {
	m, err := h.Views.Reload(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Submit handles POST /v1/views/:id/booking.  The response tells the client
// where checkout continues.
func (h *ViewHandler) Submit(c echo.Context) error {
	b, err := h.Views.Submit(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking":  b,
		"checkout": "/v1/checkout/" + b.ID,
	})
}

// Close handles DELETE /v1/views/:id.
func (h *ViewHandler) Close(c echo.Context) error {
	if err := h.Views.Close(c.Param("id"), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
