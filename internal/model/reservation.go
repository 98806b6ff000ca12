package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  A reservation
// starts RESERVED and moves exactly once to PAID or CANCELLED; both are
// terminal.
type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "RESERVED"
	StatusPaid      ReservationStatus = "PAID"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// CanTransition reports whether moving a reservation from one status to
// another is legal.  Only RESERVED→PAID and RESERVED→CANCELLED are allowed;
// any transition out of a terminal state must be rejected, never silently
// accepted.
func CanTransition(from, to ReservationStatus) bool {
	if from != StatusReserved {
		return false
	}
	return to == StatusPaid || to == StatusCancelled
}

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Reservation records a user's booking of one or more seats on a single
// flight.  The tickets under a reservation are created together with it in
// one transaction; the reservation is never deleted, only moved to a
// terminal status.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user who made the reservation.
//  FlightID         – flight being booked.
//  Status           – lifecycle state (RESERVED, PAID, CANCELLED).
//  TotalAmountCents – sum of all ticket prices in cents.
//  PaymentRef       – client reference handed to the payment provider.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Reservation struct {
	ID               uint64            // reservations.id
	UserID           uint64            // reservations.user_id
	FlightID         uint64            // reservations.flight_id
	Status           ReservationStatus // reservations.status
	TotalAmountCents uint32            // reservations.total_amount_cents
	PaymentRef       string            // reservations.payment_ref
	CreatedAt        time.Time         // reservations.created_at
	UpdatedAt        time.Time         // reservations.updated_at
}

// Ticket is one seat claim within a reservation.  PriceCents is locked in
// from the price calculator at creation time and never recalculated.
// Passenger details are optional at creation and filled in later, before
// boarding-pass issuance.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  FlightID      – flight the seat belongs to.
//  Class         – fare class of the seat.
//  PriceCents    – final locked-in price in cents.
//  PassengerName – optional passenger name (nullable).
//  PassengerDOB  – optional passenger date of birth (nullable).
//  SeatCode      – optional assigned seat, e.g. "12C" (nullable).
//  CreatedAt     – creation timestamp.
type Ticket struct {
	ID            uint64     // tickets.id
	ReservationID uint64     // tickets.reservation_id
	FlightID      uint64     // tickets.flight_id
	Class         FareClass  // tickets.fare_class
	PriceCents    uint32     // tickets.price_cents
	PassengerName *string    // tickets.passenger_name (nullable)
	PassengerDOB  *time.Time // tickets.passenger_dob (nullable)
	SeatCode      *string    // tickets.seat_code (nullable)
	CreatedAt     time.Time  // tickets.created_at
}
