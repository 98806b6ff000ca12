package booking

import (
	"context"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// Tx is the set of storage operations available inside one transaction.  The
// relational implementation backs ReserveSeats with a conditional UPDATE
// (availability check and decrement applied as one guarded statement) so
// that two concurrent reservations can never both pass a stale availability
// check and jointly oversell a cabin.
type Tx interface {
	// FlightByID loads a flight with its cabins, or ErrFlightNotFound.
	FlightByID(ctx context.Context, id uint64) (*model.Flight, error)
	// ReserveSeats decrements the availability counter of one cabin.  The
	// check and the decrement are a single atomic operation; it fails with
	// InsufficientCapacityError when fewer than count seats remain.
	ReserveSeats(ctx context.Context, flightID uint64, class model.FareClass, count uint32) error
	// ReleaseSeats increments the availability counter of one cabin, capped
	// at the cabin's total.  Hitting the cap indicates a bookkeeping bug and
	// is logged by the implementation.
	ReleaseSeats(ctx context.Context, flightID uint64, class model.FareClass, count uint32) error
	// CreateReservation inserts the reservation and populates its ID and
	// timestamps.
	CreateReservation(ctx context.Context, res *model.Reservation) error
	// CreateTickets bulk-inserts the given tickets.
	CreateTickets(ctx context.Context, tickets []model.Ticket) error
	// ReservationByID loads a reservation, or ErrReservationNotFound.
	ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// ReservationByPaymentRef resolves a reservation by its payment client
	// reference, or ErrReservationNotFound.
	ReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error)
	// TicketsByReservation lists all tickets under a reservation.
	TicketsByReservation(ctx context.Context, reservationID uint64) ([]model.Ticket, error)
	// TransitionReservation moves a reservation from one status to another
	// as a guarded update.  When the reservation is no longer in the
	// expected source status it fails with ErrInvalidStateTransition, or
	// ErrReservationNotFound when the row does not exist.
	TransitionReservation(ctx context.Context, id uint64, from, to model.ReservationStatus) error
	// UserExists reports whether an active user with the given id exists.
	UserExists(ctx context.Context, id uint64) (bool, error)
}

// Store opens transactions over the underlying datastore.  InTx runs fn
// inside one transaction: when fn returns an error the transaction is rolled
// back on every exit path and the error is returned unchanged; otherwise the
// transaction is committed.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// StaleReservationIDs lists reservations still RESERVED that were
	// created before the given instant.  Selection is a hint only: the
	// status is re-checked inside the per-reservation transaction.
	StaleReservationIDs(ctx context.Context, before time.Time) ([]uint64, error)
}

// Notifier receives lifecycle notifications.  Implementations are
// best-effort and fire-and-forget: they must never fail the calling
// operation, and delivery guarantees belong to the downstream mailer.
type Notifier interface {
	ReservationBooked(ctx context.Context, res *model.Reservation, tickets []model.Ticket)
	ReservationStatusChanged(ctx context.Context, res *model.Reservation, from, to model.ReservationStatus)
	CabinSoldOut(ctx context.Context, flightID uint64, class model.FareClass)
}

// NopNotifier discards all notifications.  Used when the broker is not
// configured.
type NopNotifier struct{}

func (NopNotifier) ReservationBooked(context.Context, *model.Reservation, []model.Ticket) {}
func (NopNotifier) ReservationStatusChanged(context.Context, *model.Reservation, model.ReservationStatus, model.ReservationStatus) {
}
func (NopNotifier) CabinSoldOut(context.Context, uint64, model.FareClass) {}
