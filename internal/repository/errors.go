// Package repository implements persistence for flights, reservations,
// tickets, users and refresh tokens on top of MySQL. Repositories expose
// plain methods for single-statement work and ...Tx variants that operate
// inside a caller-supplied transaction; the Store type in store.go groups
// the transactional variants behind the booking package's interfaces.
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as attempting to delete a flight
// that still has reservations. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrTicketNotFound is returned when a ticket lookup or guarded ticket
// update matches no row owned by the caller.
var ErrTicketNotFound = errors.New("ticket not found")
