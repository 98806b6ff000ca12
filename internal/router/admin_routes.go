package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/handler"
	"github.com/iliyamo/flight-seat-reservation/internal/middleware"
)

// RegisterAdmin registers flight management endpoints under /v1/admin.  All
// routes require a valid JWT and the ADMIN role.  Seat inventory is never
// edited directly here: counters only move through reservations.
func RegisterAdmin(e *echo.Echo, h *handler.AdminFlightHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.GET("/flights", h.List)
	g.POST("/flights", h.Create)
	g.PUT("/flights/:id", h.Update)
	g.DELETE("/flights/:id", h.Delete)
}
