package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/payment"
)

func testFlight() *model.Flight {
	return &model.Flight{
		ID:           1,
		FlightNumber: "FL100",
		Origin:       "AMS",
		Destination:  "JFK",
		DepartsAt:    time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		ArrivesAt:    time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Cabins: map[model.FareClass]model.Cabin{
			model.Economy:  {SeatsTotal: 100, SeatsAvailable: 50, BasePriceCents: 10000},
			model.Business: {SeatsTotal: 20, SeatsAvailable: 2, BasePriceCents: 40000},
			model.First:    {SeatsTotal: 4, SeatsAvailable: 4, BasePriceCents: 80000},
		},
	}
}

func newTestService(store *memStore) (*Service, *recordingNotifier, *stubProvider) {
	notifier := &recordingNotifier{}
	provider := &stubProvider{statuses: map[string]payment.Status{}}
	return NewService(store, provider, notifier), notifier, provider
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("locks one quote per class and holds the seats", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)

		res, tickets, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 2})
		require.NoError(t, err)

		assert.Equal(t, model.StatusReserved, res.Status)
		assert.NotEmpty(t, res.PaymentRef)
		require.Len(t, tickets, 2)
		// sold 50 of 100 with 50 left: 10000 * (1 + 50/50*0.05) = 10500
		for _, tk := range tickets {
			assert.Equal(t, uint32(10500), tk.PriceCents)
			assert.Equal(t, res.ID, tk.ReservationID)
		}
		assert.Equal(t, uint32(21000), res.TotalAmountCents)

		assert.Equal(t, uint32(48), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Equal(t, []uint64{res.ID}, notifier.booked)
	})

	t.Run("later sales do not reprice existing tickets", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, _, _ := newTestService(store)

		first, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 1})
		require.NoError(t, err)
		_, _, err = svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 10})
		require.NoError(t, err)

		tickets := store.ticketsOf(first.ID)
		require.Len(t, tickets, 1)
		assert.Equal(t, uint32(10500), tickets[0].PriceCents)
	})

	t.Run("multi-class reservation prices each class from its own cabin", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)

		res, tickets, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{
			model.Economy:  1,
			model.Business: 2,
		})
		require.NoError(t, err)
		require.Len(t, tickets, 3)

		// business sold 18 of 20 with 2 left: 40000 * (1 + 18/2*0.05) = 58000
		var bizTotal, ecoTotal uint32
		for _, tk := range tickets {
			switch tk.Class {
			case model.Business:
				assert.Equal(t, uint32(58000), tk.PriceCents)
				bizTotal += tk.PriceCents
			case model.Economy:
				assert.Equal(t, uint32(10500), tk.PriceCents)
				ecoTotal += tk.PriceCents
			}
		}
		assert.Equal(t, bizTotal+ecoTotal, res.TotalAmountCents)

		// business cabin went to zero, economy did not
		assert.Equal(t, []model.FareClass{model.Business}, notifier.soldOut)
	})

	t.Run("rejects when a class cannot supply the seats", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)

		_, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{
			model.Economy:  1,
			model.Business: 3,
		})
		class, ok := IsInsufficientCapacity(err)
		require.True(t, ok, "want capacity error, got %v", err)
		assert.Equal(t, model.Business, class)

		// nothing committed, nothing notified
		assert.Equal(t, uint32(50), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Empty(t, notifier.booked)
	})

	t.Run("storage failure rolls back the whole reservation", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)

		store.failTickets = true
		_, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 2})
		require.Error(t, err)

		assert.Equal(t, uint32(50), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Nil(t, store.reservation(1))
		assert.Empty(t, notifier.booked)
	})

	t.Run("unknown flight", func(t *testing.T) {
		store := newMemStore()
		store.addUser(7)
		svc, _, _ := newTestService(store)

		_, _, err := svc.CreateReservation(ctx, 7, 99, SeatRequest{model.Economy: 1})
		assert.ErrorIs(t, err, ErrFlightNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		svc, _, _ := newTestService(store)

		_, _, err := svc.CreateReservation(ctx, 42, 1, SeatRequest{model.Economy: 1})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("zero seats", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, _, _ := newTestService(store)

		_, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{})
		assert.ErrorIs(t, err, ErrNoSeatsRequested)
	})
}

func TestCreateReservationNoOverselling(t *testing.T) {
	ctx := context.Background()

	t.Run("two buyers one seat", func(t *testing.T) {
		store := newMemStore()
		f := testFlight()
		f.Cabins[model.Economy] = model.Cabin{SeatsTotal: 100, SeatsAvailable: 1, BasePriceCents: 10000}
		store.addFlight(f)
		store.addUser(1)
		store.addUser(2)
		svc, _, _ := newTestService(store)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = svc.CreateReservation(ctx, uint64(i+1), 1, SeatRequest{model.Economy: 1})
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else if _, ok := IsInsufficientCapacity(err); !ok {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, uint32(0), store.flight(1).Cabins[model.Economy].SeatsAvailable)
	})

	t.Run("fan-out never exceeds capacity", func(t *testing.T) {
		const buyers, capacity = 50, 20
		store := newMemStore()
		f := testFlight()
		f.Cabins[model.Economy] = model.Cabin{SeatsTotal: capacity, SeatsAvailable: capacity, BasePriceCents: 10000}
		store.addFlight(f)
		for i := 1; i <= buyers; i++ {
			store.addUser(uint64(i))
		}
		svc, _, _ := newTestService(store)

		errs := make([]error, buyers)
		var wg sync.WaitGroup
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = svc.CreateReservation(ctx, uint64(i+1), 1, SeatRequest{model.Economy: 1})
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			}
		}
		assert.Equal(t, capacity, wins)
		assert.Equal(t, uint32(0), store.flight(1).Cabins[model.Economy].SeatsAvailable)
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *memStore, *recordingNotifier, *model.Reservation) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)
		res, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 2})
		require.NoError(t, err)
		return svc, store, notifier, res
	}

	t.Run("releases the seats and marks cancelled", func(t *testing.T) {
		svc, store, notifier, res := setup(t)

		require.NoError(t, svc.CancelReservation(ctx, 7, res.ID))

		assert.Equal(t, model.StatusCancelled, store.reservation(res.ID).Status)
		assert.Equal(t, uint32(50), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Equal(t, []string{"RESERVED->CANCELLED"}, notifier.statusChanges())
	})

	t.Run("cancelling twice fails and releases nothing twice", func(t *testing.T) {
		svc, store, _, res := setup(t)

		require.NoError(t, svc.CancelReservation(ctx, 7, res.ID))
		err := svc.CancelReservation(ctx, 7, res.ID)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, uint32(50), store.flight(1).Cabins[model.Economy].SeatsAvailable)
	})

	t.Run("another user's reservation is forbidden", func(t *testing.T) {
		svc, store, _, res := setup(t)
		store.addUser(8)

		err := svc.CancelReservation(ctx, 8, res.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, model.StatusReserved, store.reservation(res.ID).Status)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		svc, _, _, _ := setup(t)
		err := svc.CancelReservation(ctx, 7, 999)
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *memStore, *recordingNotifier, *stubProvider, *model.Reservation) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, provider := newTestService(store)
		res, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 1})
		require.NoError(t, err)
		return svc, store, notifier, provider, res
	}

	t.Run("complete session moves to paid", func(t *testing.T) {
		svc, store, notifier, provider, res := setup(t)
		provider.statuses[res.PaymentRef] = payment.StatusComplete

		require.NoError(t, svc.Settle(ctx, res.PaymentRef))

		assert.Equal(t, model.StatusPaid, store.reservation(res.ID).Status)
		// seats stay held after payment
		assert.Equal(t, uint32(49), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Equal(t, []string{"RESERVED->PAID"}, notifier.statusChanges())
	})

	t.Run("open session does not settle", func(t *testing.T) {
		svc, store, _, provider, res := setup(t)
		provider.statuses[res.PaymentRef] = payment.StatusOpen

		err := svc.Settle(ctx, res.PaymentRef)
		assert.ErrorIs(t, err, ErrPaymentNotCompleted)
		assert.Equal(t, model.StatusReserved, store.reservation(res.ID).Status)
	})

	t.Run("unknown reference", func(t *testing.T) {
		svc, _, _, provider, _ := setup(t)
		provider.statuses["nope"] = payment.StatusComplete

		err := svc.Settle(ctx, "nope")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("paying after cancel fails", func(t *testing.T) {
		svc, store, _, provider, res := setup(t)
		provider.statuses[res.PaymentRef] = payment.StatusComplete
		require.NoError(t, svc.CancelReservation(ctx, 7, res.ID))

		err := svc.Settle(ctx, res.PaymentRef)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, model.StatusCancelled, store.reservation(res.ID).Status)
	})

	t.Run("provider failure is not a payment rejection", func(t *testing.T) {
		svc, _, _, provider, res := setup(t)
		provider.err = errors.New("gateway down")

		err := svc.Settle(ctx, res.PaymentRef)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPaymentNotCompleted)
	})
}

func TestReleaseSeatsClampsAtTotal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addFlight(testFlight())

	err := store.InTx(ctx, func(tx Tx) error {
		return tx.ReleaseSeats(ctx, 1, model.First, 3)
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), store.flight(1).Cabins[model.First].SeatsAvailable)
}
