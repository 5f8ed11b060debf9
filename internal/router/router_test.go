package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/config"
)

func TestNew_Routes(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}
	e := New(cfg, Deps{OpenViews: func() int { return 0 }, Logger: zap.NewNop()})

	want := map[string]bool{
		"GET /healthz":                           true,
		"GET /v1/events/:id/layout":              true,
		"POST /v1/events/:id/views":              true,
		"GET /v1/views/:id":                      true,
		"POST /v1/views/:id/seats/:label/toggle": true,
		"POST /v1/views/:id/reload":              true,
		"POST /v1/views/:id/booking":             true,
		"DELETE /v1/views/:id":                   true,
		"GET /v1/checkout/:id":                   true,
		"POST /v1/checkout/:id/pay":              true,
	}
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for k := range want {
		assert.True(t, got[k], k)
	}
}

func TestNew_BookingRoutesNeedToken(t *testing.T) {
	e := New(config.Config{JWTSecret: "secret"}, Deps{Logger: zap.NewNop()})

	req := httptest.NewRequest(http.MethodPost, "/v1/events/7/views", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
