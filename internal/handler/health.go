package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe.  It reports the number of open seat views
// when a counter is available.
func Health(views func() int) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := echo.Map{"status": "ok"}
		if views != nil {
			body["views"] = views()
		}
		return c.JSON(http.StatusOK, body)
	}
}
