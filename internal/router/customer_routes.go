package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/handler"
	"github.com/iliyamo/flight-seat-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can book
// seats on flights, cancel and inspect their reservations, fill in
// passenger details on tickets and settle payments.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Note: GET /v1/flights and GET /v1/flights/:id are registered on the
	// public router so that guests can browse before signing up.
	g.POST("/flights/:id/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.ListReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)
	g.PATCH("/tickets/:id", h.UpdateTicket)

	// Settlement: the customer presents the payment_ref handed out when the
	// reservation was created; the provider decides whether it was paid.
	g.POST("/payments/settle", pay.Settle)
}
