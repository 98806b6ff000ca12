package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/pricing"
	"github.com/iliyamo/flight-seat-reservation/internal/repository"
)

// PublicFlightHandler serves the unauthenticated flight catalogue: search by
// route and day, and single-flight detail.  Prices in the responses are live
// quotes from the current counters, not committed prices; a quote is only
// locked in when a reservation is created.
type PublicFlightHandler struct {
	Flights *repository.FlightRepo
}

// NewPublicFlightHandler constructs the handler and panics on a nil repository.
func NewPublicFlightHandler(flights *repository.FlightRepo) *PublicFlightHandler {
	if flights == nil {
		panic("nil repository passed to NewPublicFlightHandler")
	}
	return &PublicFlightHandler{Flights: flights}
}

// flightResponse shapes one flight for JSON output, cabins keyed by class
// name with availability and the current quote.
func flightResponse(f *model.Flight) echo.Map {
	quotes := pricing.Quotes(f)
	cabins := echo.Map{}
	for _, class := range model.FareClasses() {
		cab := f.Cabins[class]
		cabins[strings.ToLower(string(class))] = echo.Map{
			"seats_total":       cab.SeatsTotal,
			"seats_available":   cab.SeatsAvailable,
			"base_price_cents":  cab.BasePriceCents,
			"quote_price_cents": quotes[class],
		}
	}
	return echo.Map{
		"id":            f.ID,
		"flight_number": f.FlightNumber,
		"origin":        f.Origin,
		"destination":   f.Destination,
		"departs_at":    f.DepartsAt.UTC().Format(time.RFC3339),
		"arrives_at":    f.ArrivesAt.UTC().Format(time.RFC3339),
		"duration_min":  f.DurationMin,
		"layovers":      f.Layovers,
		"cabins":        cabins,
	}
}

// Search handles GET /v1/flights?origin=AMS&destination=JFK&date=2026-09-01.
// All three query parameters are required; the date names a UTC calendar day.
func (h *PublicFlightHandler) Search(c echo.Context) error {
	origin := strings.ToUpper(strings.TrimSpace(c.QueryParam("origin")))
	destination := strings.ToUpper(strings.TrimSpace(c.QueryParam("destination")))
	dateStr := strings.TrimSpace(c.QueryParam("date"))
	if len(origin) != 3 || len(destination) != 3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and destination must be 3-letter IATA codes"})
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	flights, err := h.Flights.Search(c.Request().Context(), origin, destination, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	items := make([]echo.Map, 0, len(flights))
	for _, f := range flights {
		items = append(items, flightResponse(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/flights/:id.
func (h *PublicFlightHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	f, err := h.Flights.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load flight failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": flightResponse(f)})
}
