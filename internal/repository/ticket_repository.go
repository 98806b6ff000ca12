package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// TicketRepo provides data access to the tickets table.  Tickets are
// created in bulk together with their reservation and are never deleted;
// a cancelled reservation keeps its tickets as a record of what was booked.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateBulkTx inserts multiple tickets in one statement within the
// provided transaction.  Each ticket must carry its ReservationID,
// FlightID, Class and PriceCents; passenger fields stay NULL until filled
// in later.  Passing an empty slice has no effect and returns nil.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (reservation_id, flight_id, fare_class, price_cents) VALUES `
	args := make([]interface{}, 0, len(tickets)*4)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, t.ReservationID, t.FlightID, t.Class, t.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

const ticketCols = `id, reservation_id, flight_id, fare_class, price_cents, passenger_name, passenger_dob, seat_code, created_at`

func scanTicket(s scanner) (model.Ticket, error) {
	var t model.Ticket
	var dob sql.NullTime
	err := s.Scan(&t.ID, &t.ReservationID, &t.FlightID, &t.Class, &t.PriceCents,
		&t.PassengerName, &dob, &t.SeatCode, &t.CreatedAt)
	if err != nil {
		return model.Ticket{}, err
	}
	if dob.Valid {
		d := dob.Time.UTC()
		t.PassengerDOB = &d
	}
	return t, nil
}

// ListByReservationTx lists all tickets under a reservation within the
// provided transaction, ordered by ID for deterministic output.
func (r *TicketRepo) ListByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketCols+` FROM tickets WHERE reservation_id = ? ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdatePassenger fills in the passenger details of a ticket.  The UPDATE
// joins through the owning reservation and pins the calling user, so a
// ticket under someone else's reservation is indistinguishable from a
// missing one and yields ErrTicketNotFound.  Passenger details may be
// rewritten any number of times before departure.
func (r *TicketRepo) UpdatePassenger(ctx context.Context, ticketID, userID uint64, name string, dob *time.Time, seatCode *string) error {
	const q = `UPDATE tickets t
		JOIN reservations r ON r.id = t.reservation_id
		SET t.passenger_name = ?, t.passenger_dob = ?, t.seat_code = ?
		WHERE t.id = ? AND r.user_id = ?`
	var dobVal interface{}
	if dob != nil {
		dobVal = dob.UTC().Format("2006-01-02")
	}
	result, err := r.db.ExecContext(ctx, q, name, dobVal, seatCode, ticketID, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when the new values equal the
		// old ones; check the row really is out of reach before failing.
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM tickets t JOIN reservations r ON r.id = t.reservation_id
			WHERE t.id = ? AND r.user_id = ?`, ticketID, userID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrTicketNotFound
		}
		return err
	}
	return nil
}

// GetForUser loads one ticket, enforcing that it belongs to a reservation
// of the calling user.
func (r *TicketRepo) GetForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
	const q = `SELECT t.id, t.reservation_id, t.flight_id, t.fare_class, t.price_cents,
			t.passenger_name, t.passenger_dob, t.seat_code, t.created_at
		FROM tickets t
		JOIN reservations r ON r.id = t.reservation_id
		WHERE t.id = ? AND r.user_id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, ticketID, userID))
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
