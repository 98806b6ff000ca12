package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/payment"
	"github.com/iliyamo/flight-seat-reservation/internal/pricing"
)

// SeatRequest maps fare classes to the number of seats requested in each.
// Classes with a zero count may be omitted.
type SeatRequest map[model.FareClass]uint32

// TotalSeats returns the number of seats requested across all classes.
func (r SeatRequest) TotalSeats() uint32 {
	var n uint32
	for _, c := range r {
		n += c
	}
	return n
}

// Service orchestrates reservation creation, cancellation and payment
// settlement.  The authenticated user is always passed in explicitly; the
// service holds no request-scoped state.
type Service struct {
	store    Store
	payments payment.Provider
	notifier Notifier
}

// NewService constructs the reservation service.  All dependencies must be
// non-nil; pass NopNotifier when no broker is configured.
func NewService(store Store, payments payment.Provider, notifier Notifier) *Service {
	if store == nil || payments == nil || notifier == nil {
		panic("nil dependency passed to booking.NewService")
	}
	return &Service{store: store, payments: payments, notifier: notifier}
}

// CreateReservation reserves seats on a flight for a user as one atomic
// transaction: the reservation row, all tickets and the inventory decrements
// either all commit or none do.
//
// Each ticket's price is locked from one quote per fare class, taken inside
// the transaction before that class's tickets are created, so all tickets of
// a class within one reservation share the same price.  The availability
// pre-check gives a fast failure for the common case; the conditional
// decrement in Tx.ReserveSeats remains the authoritative guard against
// concurrent overselling.
func (s *Service) CreateReservation(ctx context.Context, userID, flightID uint64, seats SeatRequest) (*model.Reservation, []model.Ticket, error) {
	if seats.TotalSeats() == 0 {
		return nil, nil, ErrNoSeatsRequested
	}

	var (
		res     *model.Reservation
		tickets []model.Ticket
		soldOut []model.FareClass
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return ErrUserNotFound
		}

		flight, err := tx.FlightByID(ctx, flightID)
		if err != nil {
			return err
		}

		// Fast-fail pre-check against the counters as loaded.  Not a
		// substitute for the guarded decrement below.
		for _, class := range model.FareClasses() {
			count := seats[class]
			if count == 0 {
				continue
			}
			if count > flight.Cabins[class].SeatsAvailable {
				return &InsufficientCapacityError{Class: class}
			}
		}

		res = &model.Reservation{
			UserID:     userID,
			FlightID:   flightID,
			Status:     model.StatusReserved,
			PaymentRef: uuid.NewString(),
		}

		// One quote per class, taken before that class's tickets are
		// created.  The quote reads the counters as they stand now; the
		// decrement happens after ticket creation, inside this same
		// transaction.
		var total uint32
		tickets = tickets[:0]
		for _, class := range model.FareClasses() {
			count := seats[class]
			if count == 0 {
				continue
			}
			quote := pricing.QuoteCents(flight.Cabins[class])
			for i := uint32(0); i < count; i++ {
				tickets = append(tickets, model.Ticket{
					FlightID:   flightID,
					Class:      class,
					PriceCents: quote,
				})
			}
			total += quote * count
		}
		res.TotalAmountCents = total

		if err := tx.CreateReservation(ctx, res); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		for i := range tickets {
			tickets[i].ReservationID = res.ID
		}
		if err := tx.CreateTickets(ctx, tickets); err != nil {
			return fmt.Errorf("create tickets: %w", err)
		}

		for _, class := range model.FareClasses() {
			count := seats[class]
			if count == 0 {
				continue
			}
			if err := tx.ReserveSeats(ctx, flightID, class, count); err != nil {
				return err
			}
		}

		// Re-read the counters to detect cabins this reservation emptied.
		after, err := tx.FlightByID(ctx, flightID)
		if err != nil {
			return err
		}
		soldOut = soldOut[:0]
		for _, class := range model.FareClasses() {
			if seats[class] > 0 && after.Cabins[class].SeatsAvailable == 0 {
				soldOut = append(soldOut, class)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifier.ReservationBooked(ctx, res, tickets)
	for _, class := range soldOut {
		s.notifier.CabinSoldOut(ctx, flightID, class)
	}
	return res, tickets, nil
}

// CancelReservation performs the user-initiated RESERVED→CANCELLED
// transition and releases one seat per ticket back to the inventory, all in
// one transaction.  Cancelling a reservation that is already PAID or
// CANCELLED fails with ErrInvalidStateTransition.
func (s *Service) CancelReservation(ctx context.Context, userID, reservationID uint64) error {
	var res *model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		res, err = tx.ReservationByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return ErrForbidden
		}
		if err := tx.TransitionReservation(ctx, reservationID, model.StatusReserved, model.StatusCancelled); err != nil {
			return err
		}
		return releaseTickets(ctx, tx, reservationID)
	})
	if err != nil {
		return err
	}
	s.notifier.ReservationStatusChanged(ctx, res, model.StatusReserved, model.StatusCancelled)
	return nil
}

// Settle reconciles an external payment with its reservation.  The provider
// is asked for the session behind the client reference; only a complete
// session moves the reservation RESERVED→PAID.  Seat counters are untouched:
// the seats have been held since creation.
func (s *Service) Settle(ctx context.Context, paymentRef string) error {
	status, err := s.payments.SessionStatus(ctx, paymentRef)
	if err != nil {
		return fmt.Errorf("payment provider lookup: %w", err)
	}
	if status != payment.StatusComplete {
		return ErrPaymentNotCompleted
	}

	var res *model.Reservation
	err = s.store.InTx(ctx, func(tx Tx) error {
		var err error
		res, err = tx.ReservationByPaymentRef(ctx, paymentRef)
		if err != nil {
			return err
		}
		return tx.TransitionReservation(ctx, res.ID, model.StatusReserved, model.StatusPaid)
	})
	if err != nil {
		return err
	}
	s.notifier.ReservationStatusChanged(ctx, res, model.StatusReserved, model.StatusPaid)
	return nil
}

// releaseTickets returns every seat claimed by the reservation's tickets to
// the inventory, grouped per flight and class so each cabin gets a single
// increment.
func releaseTickets(ctx context.Context, tx Tx, reservationID uint64) error {
	tickets, err := tx.TicketsByReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("load tickets: %w", err)
	}
	type cabinKey struct {
		flightID uint64
		class    model.FareClass
	}
	counts := make(map[cabinKey]uint32)
	for _, t := range tickets {
		counts[cabinKey{t.FlightID, t.Class}]++
	}
	for k, n := range counts {
		if err := tx.ReleaseSeats(ctx, k.flightID, k.class, n); err != nil {
			return err
		}
	}
	return nil
}
