package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// FlightRepo provides data access to the flights table.  Each flight row
// carries the counters and base price of all three cabins as per-class
// columns, so one row describes the full inventory of a flight and a single
// guarded UPDATE can check and claim seats atomically.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo returns a new FlightRepo bound to the given database.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// flightCols is the column list shared by every flight SELECT.  The order
// must match scanFlight.
const flightCols = `id, flight_number, origin, destination, departs_at, arrives_at,
	duration_min, layovers,
	seats_total_economy, seats_available_economy, base_price_economy_cents,
	seats_total_business, seats_available_business, base_price_business_cents,
	seats_total_first, seats_available_first, base_price_first_cents,
	created_at, updated_at`

// cabinColumns maps a fare class to its counter and price columns.  Column
// names are selected from a fixed set here; class values never reach the
// query text directly.
func cabinColumns(class model.FareClass) (totalCol, availCol, priceCol string, err error) {
	switch class {
	case model.Economy:
		return "seats_total_economy", "seats_available_economy", "base_price_economy_cents", nil
	case model.Business:
		return "seats_total_business", "seats_available_business", "base_price_business_cents", nil
	case model.First:
		return "seats_total_first", "seats_available_first", "base_price_first_cents", nil
	}
	return "", "", "", fmt.Errorf("unknown fare class %q", class)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFlight reads one row in flightCols order into a model.Flight.
func scanFlight(s scanner) (*model.Flight, error) {
	var f model.Flight
	var eco, biz, fst model.Cabin
	if err := s.Scan(
		&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartsAt, &f.ArrivesAt,
		&f.DurationMin, &f.Layovers,
		&eco.SeatsTotal, &eco.SeatsAvailable, &eco.BasePriceCents,
		&biz.SeatsTotal, &biz.SeatsAvailable, &biz.BasePriceCents,
		&fst.SeatsTotal, &fst.SeatsAvailable, &fst.BasePriceCents,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	f.Cabins = map[model.FareClass]model.Cabin{
		model.Economy:  eco,
		model.Business: biz,
		model.First:    fst,
	}
	return &f, nil
}

// Create inserts a new flight with its full cabin configuration and
// populates the generated ID and timestamps on the passed struct.  New
// flights start with every cabin fully available.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
	const q = `INSERT INTO flights (flight_number, origin, destination, departs_at, arrives_at,
		duration_min, layovers,
		seats_total_economy, seats_available_economy, base_price_economy_cents,
		seats_total_business, seats_available_business, base_price_business_cents,
		seats_total_first, seats_available_first, base_price_first_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	eco := f.Cabins[model.Economy]
	biz := f.Cabins[model.Business]
	fst := f.Cabins[model.First]
	result, err := r.db.ExecContext(ctx, q,
		f.FlightNumber, f.Origin, f.Destination,
		f.DepartsAt.UTC().Format("2006-01-02 15:04:05"), f.ArrivesAt.UTC().Format("2006-01-02 15:04:05"),
		f.DurationMin, f.Layovers,
		eco.SeatsTotal, eco.SeatsTotal, eco.BasePriceCents,
		biz.SeatsTotal, biz.SeatsTotal, biz.BasePriceCents,
		fst.SeatsTotal, fst.SeatsTotal, fst.BasePriceCents,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	// Query back the full row to populate timestamps and the availability
	// counters as stored.
	got, err := r.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	*f = *got
	return nil
}

// GetByID loads a flight with its cabins.  It returns
// booking.ErrFlightNotFound when no row exists.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	f, err := scanFlight(r.db.QueryRowContext(ctx, `SELECT `+flightCols+` FROM flights WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrFlightNotFound
	}
	return f, err
}

// GetByIDTx is GetByID within an existing transaction.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	f, err := scanFlight(tx.QueryRowContext(ctx, `SELECT `+flightCols+` FROM flights WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrFlightNotFound
	}
	return f, err
}

// Search returns flights between two airports departing on the given UTC
// calendar day, ordered by departure time.  Origin and destination are
// matched exactly as stored (IATA codes, upper case).
func (r *FlightRepo) Search(ctx context.Context, origin, destination string, day time.Time) ([]*model.Flight, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	const q = `SELECT ` + flightCols + ` FROM flights
		WHERE origin = ? AND destination = ? AND departs_at >= ? AND departs_at < ?
		ORDER BY departs_at`
	rows, err := r.db.QueryContext(ctx, q,
		origin, destination,
		start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flights := make([]*model.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// List returns all flights ordered by departure time.  Used by the admin
// endpoints; the public API goes through Search.
func (r *FlightRepo) List(ctx context.Context) ([]*model.Flight, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+flightCols+` FROM flights ORDER BY departs_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flights := make([]*model.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// Update rewrites the schedule fields and base prices of a flight.  Seat
// counters are deliberately not touched here: availability only ever moves
// through ReserveSeatsTx and ReleaseSeatsTx.
func (r *FlightRepo) Update(ctx context.Context, f *model.Flight) error {
	const q = `UPDATE flights SET flight_number = ?, origin = ?, destination = ?,
		departs_at = ?, arrives_at = ?, duration_min = ?, layovers = ?,
		base_price_economy_cents = ?, base_price_business_cents = ?, base_price_first_cents = ?,
		updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q,
		f.FlightNumber, f.Origin, f.Destination,
		f.DepartsAt.UTC().Format("2006-01-02 15:04:05"), f.ArrivesAt.UTC().Format("2006-01-02 15:04:05"),
		f.DurationMin, f.Layovers,
		f.Cabins[model.Economy].BasePriceCents, f.Cabins[model.Business].BasePriceCents, f.Cabins[model.First].BasePriceCents,
		f.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrFlightNotFound
	}
	return nil
}

// Delete removes a flight.  A flight with reservations cannot be deleted;
// ErrConflict is returned instead so the handler can answer 409.
func (r *FlightRepo) Delete(ctx context.Context, id uint64) error {
	var cnt int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE flight_id = ?`, id).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		return ErrConflict
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM flights WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrFlightNotFound
	}
	return nil
}

// ReserveSeatsTx claims count seats in one cabin with a single guarded
// UPDATE: the availability check and the decrement are one statement, so
// two concurrent transactions can never both succeed past the last seat.
// When no row is updated the flight either does not exist or the cabin is
// short; the follow-up existence check tells the two apart.
func (r *FlightRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, flightID uint64, class model.FareClass, count uint32) error {
	_, availCol, _, err := cabinColumns(class)
	if err != nil {
		return err
	}
	q := `UPDATE flights SET ` + availCol + ` = ` + availCol + ` - ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND ` + availCol + ` >= ?`
	result, err := tx.ExecContext(ctx, q, count, flightID, count)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE id = ?`, flightID).Scan(&exists)
		if err == sql.ErrNoRows {
			return booking.ErrFlightNotFound
		}
		if err != nil {
			return err
		}
		return &booking.InsufficientCapacityError{Class: class}
	}
	return nil
}

// ReleaseSeatsTx returns count seats to a cabin.  The increment is guarded
// so the counter never exceeds the cabin total; when the full increment
// would overshoot, the counter is clamped at the total and the anomaly is
// logged, since releasing more seats than were taken means bookkeeping
// went wrong somewhere else.
func (r *FlightRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, flightID uint64, class model.FareClass, count uint32) error {
	totalCol, availCol, _, err := cabinColumns(class)
	if err != nil {
		return err
	}
	q := `UPDATE flights SET ` + availCol + ` = ` + availCol + ` + ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND ` + availCol + ` + ? <= ` + totalCol
	result, err := tx.ExecContext(ctx, q, count, flightID, count)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE id = ?`, flightID).Scan(&exists)
	if err == sql.ErrNoRows {
		return booking.ErrFlightNotFound
	}
	if err != nil {
		return err
	}
	// Overshoot: clamp at the total instead of failing the release.
	log.Printf("repository: release of %d %s seats on flight %d exceeds cabin total, clamping", count, class, flightID)
	clampQ := `UPDATE flights SET ` + availCol + ` = ` + totalCol + `, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err = tx.ExecContext(ctx, clampQ, flightID)
	return err
}
