package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// Sweeper cancels reservations that stayed unpaid past the expiry window and
// returns their seats to the inventory.  Each reservation is swept in its
// own transaction so one failure never aborts the rest of the sweep.
type Sweeper struct {
	store    Store
	notifier Notifier
	expiry   time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSweeper constructs a sweeper.  expiry is how long a reservation may
// stay RESERVED before it is cancelled; interval is the pause between sweep
// rounds when running via Run.
func NewSweeper(store Store, notifier Notifier, expiry, interval time.Duration) *Sweeper {
	if store == nil || notifier == nil {
		panic("nil dependency passed to booking.NewSweeper")
	}
	return &Sweeper{
		store:    store,
		notifier: notifier,
		expiry:   expiry,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a fixed interval until the context is cancelled.  Errors are
// logged and the loop keeps going; a broken round must not stop the service.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: round failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: cancelled %d stale reservations", n)
			}
		}
	}
}

// SweepOnce cancels every reservation older than the expiry window that is
// still RESERVED and returns how many were cancelled.
//
// The candidate list is only a hint: a payment may settle between selection
// and the per-reservation transaction.  The guarded transition inside the
// transaction re-checks the status; a reservation found already decided is
// skipped silently, because losing that race is expected behaviour.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.expiry)
	ids, err := s.store.StaleReservationIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		res, err := s.cancelStale(ctx, id)
		switch {
		case err == nil:
			cancelled++
			s.notifier.ReservationStatusChanged(ctx, res, model.StatusReserved, model.StatusCancelled)
		case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrReservationNotFound):
			// Decided concurrently (paid or already cancelled). Expected.
		default:
			log.Printf("sweeper: reservation %d: %v", id, err)
		}
	}
	return cancelled, nil
}

func (s *Sweeper) cancelStale(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res *model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.TransitionReservation(ctx, id, model.StatusReserved, model.StatusCancelled); err != nil {
			return err
		}
		var err error
		res, err = tx.ReservationByID(ctx, id)
		if err != nil {
			return err
		}
		return releaseTickets(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
