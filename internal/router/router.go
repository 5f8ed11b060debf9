// Package router registers the HTTP routes of the booking API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/config"
	"github.com/iliyamo/seatflow/internal/handler"
	"github.com/iliyamo/seatflow/internal/middleware"
)

// Deps are the collaborators the routes are served by.  Redis may be nil.
type Deps struct {
	Views     handler.Views
	Checkouts handler.Checkouts
	Events    handler.EventSource
	OpenViews func() int
	Redis     *redis.Client
	Logger    *zap.Logger
}

// New builds an echo instance with every route registered.
func New(cfg config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))

	RegisterRoutes(e, d.OpenViews)
	RegisterPublic(e, handler.NewLayoutHandler(d.Events), middleware.NewRedisCache(cfg.Cache, d.Redis))
	RegisterBooking(e, cfg.JWTSecret,
		middleware.NewTokenBucket(cfg.RateLimit, d.Redis, d.Logger),
		handler.NewViewHandler(d.Views),
		handler.NewCheckoutHandler(d.Checkouts),
	)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, openViews func() int) {
	e.GET("/healthz", handler.Health(openViews))
}

// RegisterPublic registers the seat layout.  It is the same for every
// caller, so its responses may be cached.
func RegisterPublic(e *echo.Echo, l *handler.LayoutHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events/:id/layout", l.Get, cache)
}

// RegisterBooking registers the seat-selection and checkout flow.  Every
// route needs a valid token; the limiter runs after authentication so it
// can key on the user.
func RegisterBooking(e *echo.Echo, jwtSecret string, limiter echo.MiddlewareFunc, v *handler.ViewHandler, co *handler.CheckoutHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(limiter)

	g.POST("/events/:id/views", v.Open)
	g.GET("/views/:id", v.Get)
	g.POST("/views/:id/seats/:label/toggle", v.Toggle)
	g.POST("/views/:id/reload", v.Reload)
	g.POST("/views/:id/booking", v.Submit)
	g.DELETE("/views/:id", v.Close)

	g.GET("/checkout/:id", co.Get)
	g.POST("/checkout/:id/pay", co.Pay)
}
