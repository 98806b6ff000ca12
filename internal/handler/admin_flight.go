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

// AdminFlightHandler exposes flight management to ADMIN users.  All methods
// assume that JWT authentication and role validation have already been
// performed by middleware.
type AdminFlightHandler struct {
	Flights *repository.FlightRepo
}

// NewAdminFlightHandler constructs the handler and panics on a nil repository.
func NewAdminFlightHandler(flights *repository.FlightRepo) *AdminFlightHandler {
	if flights == nil {
		panic("nil repository passed to NewAdminFlightHandler")
	}
	return &AdminFlightHandler{Flights: flights}
}

// ----- DTOs -----

type cabinReq struct {
	SeatsTotal     uint32 `json:"seats_total"`
	BasePriceCents uint32 `json:"base_price_cents"`
}

type flightReq struct {
	FlightNumber string              `json:"flight_number"`
	Origin       string              `json:"origin"`
	Destination  string              `json:"destination"`
	DepartsAt    string              `json:"departs_at"` // RFC3339
	ArrivesAt    string              `json:"arrives_at"` // RFC3339
	Layovers     uint8               `json:"layovers"`
	Cabins       map[string]cabinReq `json:"cabins"` // keyed by fare class name
}

// parse validates the request and builds a model.Flight.  Every fare class
// must be configured; prices of zero are allowed (free seats stay free even
// after the demand multiplier).
func (r *flightReq) parse() (*model.Flight, error) {
	r.FlightNumber = strings.ToUpper(strings.TrimSpace(r.FlightNumber))
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	if r.FlightNumber == "" {
		return nil, errors.New("flight_number is required")
	}
	if len(r.Origin) != 3 || len(r.Destination) != 3 {
		return nil, errors.New("origin and destination must be 3-letter IATA codes")
	}
	if r.Origin == r.Destination {
		return nil, errors.New("origin and destination must differ")
	}
	departs, err := time.Parse(time.RFC3339, r.DepartsAt)
	if err != nil {
		return nil, errors.New("departs_at must be RFC3339")
	}
	arrives, err := time.Parse(time.RFC3339, r.ArrivesAt)
	if err != nil {
		return nil, errors.New("arrives_at must be RFC3339")
	}
	if !arrives.After(departs) {
		return nil, errors.New("arrives_at must be after departs_at")
	}
	cabins := make(map[model.FareClass]model.Cabin, len(r.Cabins))
	for name, cab := range r.Cabins {
		class, ok := model.ParseFareClass(name)
		if !ok {
			return nil, errors.New("unknown fare class: " + name)
		}
		cabins[class] = model.Cabin{
			SeatsTotal:     cab.SeatsTotal,
			SeatsAvailable: cab.SeatsTotal,
			BasePriceCents: cab.BasePriceCents,
		}
	}
	for _, class := range model.FareClasses() {
		if _, ok := cabins[class]; !ok {
			return nil, errors.New("missing cabin configuration for class " + string(class))
		}
	}
	return &model.Flight{
		FlightNumber: r.FlightNumber,
		Origin:       r.Origin,
		Destination:  r.Destination,
		DepartsAt:    departs.UTC(),
		ArrivesAt:    arrives.UTC(),
		DurationMin:  uint32(arrives.Sub(departs) / time.Minute),
		Layovers:     r.Layovers,
		Cabins:       cabins,
	}, nil
}

// Create handles POST /v1/admin/flights.
func (h *AdminFlightHandler) Create(c echo.Context) error {
	var req flightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	flight, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Flights.Create(c.Request().Context(), flight); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create flight failed"})
	}
	return c.JSON(http.StatusCreated, flightResponse(flight))
}

// Update handles PUT /v1/admin/flights/:id.  Seat counters are not touched:
// only the schedule and base prices can change after creation.
func (h *AdminFlightHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var req flightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	flight, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	flight.ID = id
	if err := h.Flights.Update(c.Request().Context(), flight); err != nil {
		if errors.Is(err, booking.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update flight failed"})
	}
	got, err := h.Flights.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load flight failed"})
	}
	return c.JSON(http.StatusOK, flightResponse(got))
}

// Delete handles DELETE /v1/admin/flights/:id.  Flights with reservations
// cannot be deleted and yield 409.
func (h *AdminFlightHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	if err := h.Flights.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, booking.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "flight has reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete flight failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/admin/flights.
func (h *AdminFlightHandler) List(c echo.Context) error {
	flights, err := h.Flights.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list flights failed"})
	}
	items := make([]echo.Map, 0, len(flights))
	for _, f := range flights {
		items = append(items, flightResponse(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
