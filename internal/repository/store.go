package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// Store implements booking.Store on top of MySQL.  It owns the transaction
// lifecycle: InTx begins a transaction, hands the repositories' ...Tx
// variants to the callback through a storeTx, and commits only when the
// callback succeeds.  Rollback is deferred so every early return and panic
// unwinds the transaction.
type Store struct {
	db           *sql.DB
	flights      *FlightRepo
	reservations *ReservationRepo
	tickets      *TicketRepo
	users        *UserRepo
}

// NewStore builds a Store sharing the given repositories.
func NewStore(db *sql.DB, flights *FlightRepo, reservations *ReservationRepo, tickets *TicketRepo, users *UserRepo) *Store {
	return &Store{db: db, flights: flights, reservations: reservations, tickets: tickets, users: users}
}

// InTx runs fn inside one database transaction.  When fn returns an error
// the transaction is rolled back and the error returned unchanged;
// otherwise the transaction is committed.
func (s *Store) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// StaleReservationIDs implements booking.Store.
func (s *Store) StaleReservationIDs(ctx context.Context, before time.Time) ([]uint64, error) {
	return s.reservations.StaleReservedIDs(ctx, before)
}

// storeTx adapts one *sql.Tx to the booking.Tx interface by delegating to
// the repositories' transactional methods.
type storeTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *storeTx) FlightByID(ctx context.Context, id uint64) (*model.Flight, error) {
	return t.s.flights.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) ReserveSeats(ctx context.Context, flightID uint64, class model.FareClass, count uint32) error {
	return t.s.flights.ReserveSeatsTx(ctx, t.tx, flightID, class, count)
}

func (t *storeTx) ReleaseSeats(ctx context.Context, flightID uint64, class model.FareClass, count uint32) error {
	return t.s.flights.ReleaseSeatsTx(ctx, t.tx, flightID, class, count)
}

func (t *storeTx) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return t.s.reservations.CreateTx(ctx, t.tx, res)
}

func (t *storeTx) CreateTickets(ctx context.Context, tickets []model.Ticket) error {
	return t.s.tickets.CreateBulkTx(ctx, t.tx, tickets)
}

func (t *storeTx) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.s.reservations.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) ReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	return t.s.reservations.GetByPaymentRefTx(ctx, t.tx, ref)
}

func (t *storeTx) TicketsByReservation(ctx context.Context, reservationID uint64) ([]model.Ticket, error) {
	return t.s.tickets.ListByReservationTx(ctx, t.tx, reservationID)
}

func (t *storeTx) TransitionReservation(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	return t.s.reservations.TransitionTx(ctx, t.tx, id, from, to)
}

func (t *storeTx) UserExists(ctx context.Context, id uint64) (bool, error) {
	return t.s.users.ExistsTx(ctx, t.tx, id)
}
