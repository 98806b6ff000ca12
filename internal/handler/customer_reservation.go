package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/repository"
)

// CustomerHandler serves the reservation endpoints for authenticated
// customers.  The transactional work lives in the booking service; this
// layer only parses requests, passes the authenticated user ID through and
// maps domain errors to HTTP statuses.
type CustomerHandler struct {
	Svc          *booking.Service
	Reservations *repository.ReservationRepo
	Tickets      *repository.TicketRepo
}

// NewCustomerHandler constructs a new CustomerHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewCustomerHandler(svc *booking.Service, reservations *repository.ReservationRepo, tickets *repository.TicketRepo) *CustomerHandler {
	if svc == nil || reservations == nil || tickets == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Svc: svc, Reservations: reservations, Tickets: tickets}
}

// CreateReservation handles POST /v1/flights/:id/reservations.  The body
// maps fare class names to seat counts, e.g. {"seats":{"economy":2,"first":1}}.
// All requested seats are booked atomically; when any class cannot supply
// its count the whole request fails with 409 and nothing is booked.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	flightID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var body struct {
		Seats map[string]uint32 `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seats := booking.SeatRequest{}
	for name, count := range body.Seats {
		class, ok := model.ParseFareClass(name)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown fare class: " + name})
		}
		seats[class] += count
	}

	res, tickets, err := h.Svc.CreateReservation(c.Request().Context(), userID, flightID, seats)
	if err != nil {
		if class, ok := booking.IsInsufficientCapacity(err); ok {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "insufficient capacity",
				"class": string(class),
			})
		}
		switch {
		case errors.Is(err, booking.ErrNoSeatsRequested):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats requested"})
		case errors.Is(err, booking.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		case errors.Is(err, booking.ErrUserNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	ticketItems := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		ticketItems = append(ticketItems, echo.Map{
			"class":       strings.ToLower(string(t.Class)),
			"price_cents": t.PriceCents,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id":     res.ID,
		"status":             string(res.Status),
		"total_amount_cents": res.TotalAmountCents,
		"payment_ref":        res.PaymentRef,
		"tickets":            ticketItems,
	})
}

// CancelReservation handles DELETE /v1/reservations/:id.  Only the owner
// may cancel, and only while the reservation is still RESERVED; a decided
// reservation yields 409.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Svc.CancelReservation(c.Request().Context(), userID, resID); err != nil {
		switch {
		case errors.Is(err, booking.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, booking.ErrInvalidStateTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already decided"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel reservation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListReservations handles GET /v1/my-reservations.  It returns all
// reservations created by the current user along with flight and ticket
// details.  When no reservations exist, it returns an empty array.
func (h *CustomerHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetReservation handles GET /v1/reservations/:id.  A reservation belonging
// to another user is answered with 404, indistinguishable from a missing
// one.
func (h *CustomerHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.Reservations.GetDetailForUser(c.Request().Context(), resID, userID)
	if err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// UpdateTicket handles PATCH /v1/tickets/:id.  Customers fill in passenger
// details on their own tickets after booking; the details may be rewritten
// until departure.
func (h *CustomerHandler) UpdateTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		PassengerName string  `json:"passenger_name"`
		PassengerDOB  string  `json:"passenger_dob"` // YYYY-MM-DD
		SeatCode      *string `json:"seat_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.PassengerName = strings.TrimSpace(body.PassengerName)
	if body.PassengerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_name is required"})
	}
	var dob *time.Time
	if strings.TrimSpace(body.PassengerDOB) != "" {
		d, err := time.Parse("2006-01-02", body.PassengerDOB)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_dob must be YYYY-MM-DD"})
		}
		dob = &d
	}
	if err := h.Tickets.UpdatePassenger(c.Request().Context(), ticketID, userID, body.PassengerName, dob, body.SeatCode); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update ticket failed"})
	}
	ticket, err := h.Tickets.GetForUser(c.Request().Context(), ticketID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ticket failed"})
	}
	var dobOut *string
	if ticket.PassengerDOB != nil {
		d := ticket.PassengerDOB.UTC().Format("2006-01-02")
		dobOut = &d
	}
	return c.JSON(http.StatusOK, echo.Map{"item": echo.Map{
		"id":             ticket.ID,
		"reservation_id": ticket.ReservationID,
		"class":          strings.ToLower(string(ticket.Class)),
		"price_cents":    ticket.PriceCents,
		"passenger_name": ticket.PassengerName,
		"passenger_dob":  dobOut,
		"seat_code":      ticket.SeatCode,
	}})
}
