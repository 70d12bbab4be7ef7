package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/healthz", Health)

	g := e.Group("/v1")
	g.GET("/offers", h.ListOpenOffers)
	g.POST("/offers", h.CreateOffer)
	g.GET("/offers/:id", h.GetOffer)
	g.POST("/offers/:id/accept", h.AcceptOffer)
	g.POST("/offers/:id/cancel", h.CancelOffer)
	g.POST("/offers/:id/escalate", h.EscalateOffer)
	g.POST("/offers/:id/remind", h.RemindOffer)
	g.POST("/bookings/:id/cancel", h.CancelBooking)

	return e
}
