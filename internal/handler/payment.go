package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
)

// PaymentHandler settles reservations against the external payment
// provider.  The caller presents the payment_ref handed out at reservation
// time; the provider is the source of truth for whether the session behind
// it was actually paid.
type PaymentHandler struct {
	Svc *booking.Service
}

// NewPaymentHandler constructs the handler and panics on a nil service.
func NewPaymentHandler(svc *booking.Service) *PaymentHandler {
	if svc == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Svc: svc}
}

// Settle handles POST /v1/payments/settle with body {"payment_ref": "..."}.
// It verifies the session with the provider and, when complete, moves the
// reservation to PAID.  An incomplete session yields 402; a reservation
// already decided yields 409.  Settling is idempotent only in the sense
// that a second call fails cleanly; it never flips a terminal state.
func (h *PaymentHandler) Settle(c echo.Context) error {
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.PaymentRef) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref required"})
	}
	if err := h.Svc.Settle(c.Request().Context(), strings.TrimSpace(body.PaymentRef)); err != nil {
		switch {
		case errors.Is(err, booking.ErrPaymentNotCompleted):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not completed"})
		case errors.Is(err, booking.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no reservation for payment_ref"})
		case errors.Is(err, booking.ErrInvalidStateTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already decided"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "PAID"})
}
