package model

import (
	"strings"
	"time"
)

// FareClass partitions a flight's seat inventory.  Each class carries its
// own total/available counters and base price, so pricing and capacity are
// tracked independently per class.
type FareClass string

// The three fare classes sold on every flight.  The string values match the
// enumeration stored in the database and exchanged over the API.
const (
	Economy  FareClass = "ECONOMY"
	Business FareClass = "BUSINESS"
	First    FareClass = "FIRST"
)

// FareClasses returns all fare classes in their canonical order.  Callers
// iterating over a flight's cabins should use this order for deterministic
// output.
func FareClasses() []FareClass {
	return []FareClass{Economy, Business, First}
}

// ParseFareClass normalizes a user-supplied class name.  It accepts any
// casing and returns false for unknown classes.
func ParseFareClass(s string) (FareClass, bool) {
	switch FareClass(strings.ToUpper(strings.TrimSpace(s))) {
	case Economy:
		return Economy, true
	case Business:
		return Business, true
	case First:
		return First, true
	}
	return "", false
}

// Cabin holds the seat counters and base price for one fare class of one
// flight.  SeatsAvailable is a denormalized counter: it is kept consistent
// with the set of non-cancelled tickets by updating it in the same
// transaction as every ticket mutation.  The invariant
// 0 <= SeatsAvailable <= SeatsTotal holds at all times.
//
// Fields:
//  SeatsTotal     – capacity of the cabin.
//  SeatsAvailable – seats not claimed by an active ticket.
//  BasePriceCents – base fare in cents before the demand multiplier.
type Cabin struct {
	SeatsTotal     uint32 // flights.seats_total_<class>
	SeatsAvailable uint32 // flights.seats_available_<class>
	BasePriceCents uint32 // flights.base_price_<class>_cents
}

// SeatsSold returns the number of seats currently claimed in the cabin.
func (c Cabin) SeatsSold() uint32 {
	if c.SeatsAvailable >= c.SeatsTotal {
		return 0
	}
	return c.SeatsTotal - c.SeatsAvailable
}

// Flight represents one scheduled flight together with its per-class seat
// inventory.  The availability counters are mutated only through the
// repository's reserve/release operations; no other code path touches them.
//
// Fields:
//  ID           – primary key identifier.
//  FlightNumber – carrier designator, e.g. "FR1234".
//  Origin       – IATA code of the departure airport.
//  Destination  – IATA code of the arrival airport.
//  DepartsAt    – scheduled departure (UTC).
//  ArrivesAt    – scheduled arrival (UTC).
//  DurationMin  – total travel time in minutes.
//  Layovers     – number of intermediate stops.
//  Cabins       – per fare class counters and base price.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Flight struct {
	ID           uint64              // flights.id
	FlightNumber string              // flights.flight_number
	Origin       string              // flights.origin
	Destination  string              // flights.destination
	DepartsAt    time.Time           // flights.departs_at
	ArrivesAt    time.Time           // flights.arrives_at
	DurationMin  uint32              // flights.duration_min
	Layovers     uint8               // flights.layovers
	Cabins       map[FareClass]Cabin // denormalized seat counters per class
	CreatedAt    time.Time           // flights.created_at
	UpdatedAt    time.Time           // flights.updated_at
}
