package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
	"github.com/iliyamo/flight-seat-reservation/internal/payment"
)

// memStore is an in-memory Store used by the tests in this package.  InTx
// serializes transactions behind a mutex and applies fn to a staged deep
// copy of the state, committing the copy only when fn succeeds.  That gives
// the same observable behaviour as the relational store: full rollback on
// error and no two transactions interleaving on the same rows.
type memStore struct {
	mu sync.Mutex
	st *memState

	failTickets bool // inject a storage failure in CreateTickets
}

type memState struct {
	flights      map[uint64]*model.Flight
	reservations map[uint64]*model.Reservation
	tickets      map[uint64]*model.Ticket
	users        map[uint64]bool
	nextRes      uint64
	nextTicket   uint64
}

func newMemStore() *memStore {
	return &memStore{st: &memState{
		flights:      map[uint64]*model.Flight{},
		reservations: map[uint64]*model.Reservation{},
		tickets:      map[uint64]*model.Ticket{},
		users:        map[uint64]bool{},
		nextRes:      1,
		nextTicket:   1,
	}}
}

func (st *memState) clone() *memState {
	out := &memState{
		flights:      make(map[uint64]*model.Flight, len(st.flights)),
		reservations: make(map[uint64]*model.Reservation, len(st.reservations)),
		tickets:      make(map[uint64]*model.Ticket, len(st.tickets)),
		users:        make(map[uint64]bool, len(st.users)),
		nextRes:      st.nextRes,
		nextTicket:   st.nextTicket,
	}
	for id, f := range st.flights {
		out.flights[id] = copyFlight(f)
	}
	for id, r := range st.reservations {
		c := *r
		out.reservations[id] = &c
	}
	for id, t := range st.tickets {
		c := *t
		out.tickets[id] = &c
	}
	for id, ok := range st.users {
		out.users[id] = ok
	}
	return out
}

func copyFlight(f *model.Flight) *model.Flight {
	c := *f
	c.Cabins = make(map[model.FareClass]model.Cabin, len(f.Cabins))
	for class, cab := range f.Cabins {
		c.Cabins[class] = cab
	}
	return &c
}

func (s *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.st.clone()
	if err := fn(&memTx{st: staged, store: s}); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func (s *memStore) StaleReservationIDs(_ context.Context, before time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, r := range s.st.reservations {
		if r.Status == model.StatusReserved && r.CreatedAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// helpers for assertions outside transactions

func (s *memStore) flight(id uint64) *model.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyFlight(s.st.flights[id])
}

func (s *memStore) reservation(id uint64) *model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reservations[id]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

func (s *memStore) ticketsOf(reservationID uint64) []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.st.tickets {
		if t.ReservationID == reservationID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) addFlight(f *model.Flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.flights[f.ID] = copyFlight(f)
}

func (s *memStore) addUser(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[id] = true
}

type memTx struct {
	st    *memState
	store *memStore
}

func (t *memTx) FlightByID(_ context.Context, id uint64) (*model.Flight, error) {
	f, ok := t.st.flights[id]
	if !ok {
		return nil, ErrFlightNotFound
	}
	return copyFlight(f), nil
}

func (t *memTx) ReserveSeats(_ context.Context, flightID uint64, class model.FareClass, count uint32) error {
	f, ok := t.st.flights[flightID]
	if !ok {
		return ErrFlightNotFound
	}
	cab := f.Cabins[class]
	if cab.SeatsAvailable < count {
		return &InsufficientCapacityError{Class: class}
	}
	cab.SeatsAvailable -= count
	f.Cabins[class] = cab
	return nil
}

func (t *memTx) ReleaseSeats(_ context.Context, flightID uint64, class model.FareClass, count uint32) error {
	f, ok := t.st.flights[flightID]
	if !ok {
		return ErrFlightNotFound
	}
	cab := f.Cabins[class]
	cab.SeatsAvailable += count
	if cab.SeatsAvailable > cab.SeatsTotal {
		cab.SeatsAvailable = cab.SeatsTotal
	}
	f.Cabins[class] = cab
	return nil
}

func (t *memTx) CreateReservation(_ context.Context, res *model.Reservation) error {
	res.ID = t.st.nextRes
	t.st.nextRes++
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	c := *res
	t.st.reservations[res.ID] = &c
	return nil
}

func (t *memTx) CreateTickets(_ context.Context, tickets []model.Ticket) error {
	if t.store.failTickets {
		return errors.New("storage failure")
	}
	for i := range tickets {
		tickets[i].ID = t.st.nextTicket
		t.st.nextTicket++
		tickets[i].CreatedAt = time.Now().UTC()
		c := tickets[i]
		t.st.tickets[c.ID] = &c
	}
	return nil
}

func (t *memTx) ReservationByID(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	c := *r
	return &c, nil
}

func (t *memTx) ReservationByPaymentRef(_ context.Context, ref string) (*model.Reservation, error) {
	for _, r := range t.st.reservations {
		if r.PaymentRef == ref {
			c := *r
			return &c, nil
		}
	}
	return nil, ErrReservationNotFound
}

func (t *memTx) TicketsByReservation(_ context.Context, reservationID uint64) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, tk := range t.st.tickets {
		if tk.ReservationID == reservationID {
			out = append(out, *tk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) TransitionReservation(_ context.Context, id uint64, from, to model.ReservationStatus) error {
	r, ok := t.st.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != from {
		return ErrInvalidStateTransition
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memTx) UserExists(_ context.Context, id uint64) (bool, error) {
	return t.st.users[id], nil
}

// stubProvider answers session lookups from a fixed map.
type stubProvider struct {
	statuses map[string]payment.Status
	err      error
}

func (p *stubProvider) SessionStatus(_ context.Context, ref string) (payment.Status, error) {
	if p.err != nil {
		return "", p.err
	}
	st, ok := p.statuses[ref]
	if !ok {
		return payment.StatusOpen, nil
	}
	return st, nil
}

// recordingNotifier captures notifications; safe for concurrent use.
type recordingNotifier struct {
	mu         sync.Mutex
	booked     []uint64
	changed    []string
	soldOut    []model.FareClass
}

func (n *recordingNotifier) ReservationBooked(_ context.Context, res *model.Reservation, _ []model.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, res.ID)
}

func (n *recordingNotifier) ReservationStatusChanged(_ context.Context, res *model.Reservation, from, to model.ReservationStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(from)+"->"+string(to))
}

func (n *recordingNotifier) CabinSoldOut(_ context.Context, _ uint64, class model.FareClass) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.soldOut = append(n.soldOut, class)
}

func (n *recordingNotifier) statusChanges() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.changed...)
}
