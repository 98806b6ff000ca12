// Package booking implements the reservation core: the transaction manager
// that allocates seats atomically, the lifecycle rules for reservations, the
// payment settlement path and the sweeper that expires stale reservations.
// All domain failures are typed so callers can branch on kind; anything else
// bubbling out of the store is an infrastructure failure and safe to retry.
package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// Sentinel domain errors.  Handlers translate these into HTTP statuses; the
// sweeper uses them to tell expected races apart from real failures.
var (
	ErrFlightNotFound         = errors.New("flight not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPaymentNotCompleted    = errors.New("payment not completed")
	ErrForbidden              = errors.New("forbidden")
	ErrNoSeatsRequested       = errors.New("no seats requested")
)

// InsufficientCapacityError reports that a fare class could not supply the
// requested number of seats.  It carries the class so the caller can tell
// the user which cabin sold out.
type InsufficientCapacityError struct {
	Class model.FareClass
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity in class %s", e.Class)
}

// IsInsufficientCapacity reports whether err is a capacity rejection and, if
// so, for which fare class.
func IsInsufficientCapacity(err error) (model.FareClass, bool) {
	var ice *InsufficientCapacityError
	if errors.As(err, &ice) {
		return ice.Class, true
	}
	return "", false
}
