package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/payment"
)

func backdate(store *memStore, reservationID uint64, age time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	r := store.st.reservations[reservationID]
	r.CreatedAt = r.CreatedAt.Add(-age)
}

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	const expiry = 3 * time.Hour

	t.Run("cancels stale holds and keeps fresh ones", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, _ := newTestService(store)

		stale, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 2})
		require.NoError(t, err)
		fresh, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 1})
		require.NoError(t, err)
		backdate(store, stale.ID, expiry+time.Minute)

		sw := NewSweeper(store, notifier, expiry, time.Minute)
		n, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.Equal(t, model.StatusCancelled, store.reservation(stale.ID).Status)
		assert.Equal(t, model.StatusReserved, store.reservation(fresh.ID).Status)
		// only the stale reservation's two seats came back
		assert.Equal(t, uint32(49), store.flight(1).Cabins[model.Economy].SeatsAvailable)
		assert.Contains(t, notifier.statusChanges(), "RESERVED->CANCELLED")
	})

	t.Run("paid reservations are left alone", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, provider := newTestService(store)

		res, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 1})
		require.NoError(t, err)
		provider.statuses[res.PaymentRef] = payment.StatusComplete
		require.NoError(t, svc.Settle(ctx, res.PaymentRef))
		backdate(store, res.ID, expiry+time.Minute)

		sw := NewSweeper(store, notifier, expiry, time.Minute)
		n, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		assert.Equal(t, model.StatusPaid, store.reservation(res.ID).Status)
		assert.Equal(t, uint32(49), store.flight(1).Cabins[model.Economy].SeatsAvailable)
	})

	t.Run("losing the race to a settlement is not an error", func(t *testing.T) {
		store := newMemStore()
		store.addFlight(testFlight())
		store.addUser(7)
		svc, notifier, provider := newTestService(store)

		res, _, err := svc.CreateReservation(ctx, 7, 1, SeatRequest{model.Economy: 1})
		require.NoError(t, err)
		backdate(store, res.ID, expiry+time.Minute)

		// the reservation settles after it was selected as a candidate;
		// the guarded transition inside the sweep transaction must refuse
		sw := NewSweeper(store, notifier, expiry, time.Minute)
		ids, err := store.StaleReservationIDs(ctx, sw.now().Add(-expiry))
		require.NoError(t, err)
		require.Equal(t, []uint64{res.ID}, ids)

		provider.statuses[res.PaymentRef] = payment.StatusComplete
		require.NoError(t, svc.Settle(ctx, res.PaymentRef))

		_, err = sw.cancelStale(ctx, ids[0])
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, model.StatusPaid, store.reservation(res.ID).Status)
		assert.Equal(t, uint32(49), store.flight(1).Cabins[model.Economy].SeatsAvailable)
	})

	t.Run("empty sweep", func(t *testing.T) {
		store := newMemStore()
		sw := NewSweeper(store, NopNotifier{}, expiry, time.Minute)
		n, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	store := newMemStore()
	sw := NewSweeper(store, NopNotifier{}, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
