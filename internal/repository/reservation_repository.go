package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.  Rows are
// never deleted: a reservation is only ever moved between lifecycle states,
// and always through the guarded TransitionTx so a decided reservation can
// never be decided twice.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, user_id, flight_id, status, total_amount_cents, payment_ref, created_at, updated_at`

func scanReservation(s scanner) (*model.Reservation, error) {
	var res model.Reservation
	if err := s.Scan(
		&res.ID, &res.UserID, &res.FlightID, &res.Status, &res.TotalAmountCents,
		&res.PaymentRef, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on the passed
// struct.  The caller must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, flight_id, status, total_amount_cents, payment_ref) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.FlightID, res.Status, res.TotalAmountCents, res.PaymentRef)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	got, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByIDTx loads a reservation inside a transaction, or
// booking.ErrReservationNotFound.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationNotFound
	}
	return res, err
}

// GetByPaymentRefTx resolves a reservation by the client reference handed to
// the payment provider.  payment_ref carries a unique index.
func (r *ReservationRepo) GetByPaymentRefTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE payment_ref = ?`, ref))
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationNotFound
	}
	return res, err
}

// TransitionTx moves a reservation from one status to another as a single
// guarded UPDATE.  The WHERE clause pins the expected source status, so a
// reservation that was decided concurrently is left untouched and the
// caller gets booking.ErrInvalidStateTransition.  When the row does not
// exist at all, booking.ErrReservationNotFound is returned instead.
func (r *ReservationRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return booking.ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		return booking.ErrInvalidStateTransition
	}
	return nil
}

// StaleReservedIDs lists reservations still RESERVED that were created
// before the given instant, oldest first.  The sweeper treats the result as
// candidates only and re-checks each status inside its own transaction.
func (r *ReservationRepo) StaleReservedIDs(ctx context.Context, before time.Time) ([]uint64, error) {
	const q = `SELECT id FROM reservations WHERE status = ? AND created_at < ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, model.StatusReserved, before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ReservationDetail is a reservation joined with its flight and tickets,
// shaped for display to customers.
type ReservationDetail struct {
	ID               uint64         `json:"id"`
	FlightID         uint64         `json:"flight_id"`
	FlightNumber     string         `json:"flight_number"`
	Origin           string         `json:"origin"`
	Destination      string         `json:"destination"`
	DepartsAt        string         `json:"departs_at"`
	Status           string         `json:"status"`
	TotalAmountCents uint32         `json:"total_amount_cents"`
	PaymentRef       string         `json:"payment_ref"`
	CreatedAt        string         `json:"created_at"`
	Tickets          []TicketDetail `json:"tickets"`
}

// TicketDetail is the customer-facing view of one ticket.
type TicketDetail struct {
	ID            uint64  `json:"id"`
	Class         string  `json:"class"`
	PriceCents    uint32  `json:"price_cents"`
	PassengerName *string `json:"passenger_name,omitempty"`
	PassengerDOB  *string `json:"passenger_dob,omitempty"`
	SeatCode      *string `json:"seat_code,omitempty"`
}

// GetDetailForUser returns a single reservation with flight and ticket
// details.  The query pins the calling user to enforce ownership; a
// reservation belonging to someone else is indistinguishable from a missing
// one and yields booking.ErrReservationNotFound.
func (r *ReservationRepo) GetDetailForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT r.id, r.flight_id, f.flight_number, f.origin, f.destination, f.departs_at,
			r.status, r.total_amount_cents, r.payment_ref, r.created_at
		FROM reservations r
		JOIN flights f ON f.id = r.flight_id
		WHERE r.id = ? AND r.user_id = ?`
	var det ReservationDetail
	var departsAt, createdAt time.Time
	err := r.db.QueryRowContext(ctx, q, reservationID, userID).Scan(
		&det.ID, &det.FlightID, &det.FlightNumber, &det.Origin, &det.Destination, &departsAt,
		&det.Status, &det.TotalAmountCents, &det.PaymentRef, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	det.DepartsAt = departsAt.UTC().Format(time.RFC3339)
	det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	tickets, err := r.ticketDetails(ctx, []uint64{det.ID})
	if err != nil {
		return nil, err
	}
	det.Tickets = tickets[det.ID]
	if det.Tickets == nil {
		det.Tickets = []TicketDetail{}
	}
	return &det, nil
}

// ListByUser returns all reservations of a user with flight and ticket
// details, newest first.  When no reservations exist an empty slice is
// returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.flight_id, f.flight_number, f.origin, f.destination, f.departs_at,
			r.status, r.total_amount_cents, r.payment_ref, r.created_at
		FROM reservations r
		JOIN flights f ON f.id = r.flight_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	index := make(map[uint64]int)
	ids := make([]uint64, 0)
	for rows.Next() {
		var det ReservationDetail
		var departsAt, createdAt time.Time
		if err := rows.Scan(
			&det.ID, &det.FlightID, &det.FlightNumber, &det.Origin, &det.Destination, &departsAt,
			&det.Status, &det.TotalAmountCents, &det.PaymentRef, &createdAt,
		); err != nil {
			return nil, err
		}
		det.DepartsAt = departsAt.UTC().Format(time.RFC3339)
		det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		det.Tickets = []TicketDetail{}
		index[det.ID] = len(details)
		details = append(details, det)
		ids = append(ids, det.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate tickets for all reservations in a single query.
	byRes, err := r.ticketDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	for resID, tickets := range byRes {
		if idx, ok := index[resID]; ok {
			details[idx].Tickets = tickets
		}
	}
	return details, nil
}

// ticketDetails loads the ticket views for a set of reservations, keyed by
// reservation ID.
func (r *ReservationRepo) ticketDetails(ctx context.Context, reservationIDs []uint64) (map[uint64][]TicketDetail, error) {
	if len(reservationIDs) == 0 {
		return map[uint64][]TicketDetail{}, nil
	}
	query := `SELECT reservation_id, id, fare_class, price_cents, passenger_name, passenger_dob, seat_code
		FROM tickets WHERE reservation_id IN (`
	args := make([]interface{}, 0, len(reservationIDs))
	for i, id := range reservationIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) ORDER BY reservation_id, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]TicketDetail)
	for rows.Next() {
		var resID uint64
		var td TicketDetail
		var dob sql.NullTime
		if err := rows.Scan(&resID, &td.ID, &td.Class, &td.PriceCents, &td.PassengerName, &dob, &td.SeatCode); err != nil {
			return nil, err
		}
		if dob.Valid {
			d := dob.Time.UTC().Format("2006-01-02")
			td.PassengerDOB = &d
		}
		out[resID] = append(out[resID], td)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
