// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same query layer can
// run inside and outside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const reservationColumns = `id, player_id, court_id, venue_id, date, start_time, end_time,
	status, cancellation_reason, checked_in_at, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID, &r.PlayerID, &r.CourtID, &r.VenueID, &r.Date,
		&r.StartTime, &r.EndTime, &r.Status,
		&r.CancellationReason, &r.CheckedInAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (q *Queries) scanReservations(rows *sql.Rows) ([]Reservation, error) {
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

type CreateVenueParams struct {
	Name        string
	Timezone    string
	AutoConfirm bool
}

func (q *Queries) CreateVenue(ctx context.Context, arg CreateVenueParams) (Venue, error) {
	const query = `INSERT INTO venues (name, timezone, auto_confirm)
		VALUES (?, ?, ?)
		RETURNING id, name, timezone, auto_confirm, created_at`
	var v Venue
	err := q.db.QueryRowContext(ctx, query, arg.Name, arg.Timezone, arg.AutoConfirm).
		Scan(&v.ID, &v.Name, &v.Timezone, &v.AutoConfirm, &v.CreatedAt)
	return v, err
}

func (q *Queries) GetVenue(ctx context.Context, id int64) (Venue, error) {
	const query = `SELECT id, name, timezone, auto_confirm, created_at
		FROM venues WHERE id = ?`
	var v Venue
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&v.ID, &v.Name, &v.Timezone, &v.AutoConfirm, &v.CreatedAt)
	return v, err
}

type CreateCourtParams struct {
	VenueID int64
	Name    string
	Active  bool
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	const query = `INSERT INTO courts (venue_id, name, active)
		VALUES (?, ?, ?)
		RETURNING id, venue_id, name, active, created_at`
	var c Court
	err := q.db.QueryRowContext(ctx, query, arg.VenueID, arg.Name, arg.Active).
		Scan(&c.ID, &c.VenueID, &c.Name, &c.Active, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	const query = `SELECT id, venue_id, name, active, created_at
		FROM courts WHERE id = ?`
	var c Court
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.VenueID, &c.Name, &c.Active, &c.CreatedAt)
	return c, err
}

type CreateReservationParams struct {
	PlayerID  int64
	CourtID   int64
	VenueID   int64
	Date      string
	StartTime time.Time
	EndTime   time.Time
	Status    string
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	query := `INSERT INTO reservations (player_id, court_id, venue_id, date, start_time, end_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + reservationColumns
	return scanReservation(q.db.QueryRowContext(ctx, query,
		arg.PlayerID, arg.CourtID, arg.VenueID, arg.Date,
		arg.StartTime.UTC(), arg.EndTime.UTC(), arg.Status,
	))
}

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(q.db.QueryRowContext(ctx, query, id))
}

type ListActiveCourtOverlapsParams struct {
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
}

// ListActiveCourtOverlaps returns the pending and confirmed reservations on a
// court whose [start_time, end_time) interval overlaps the given one.
func (q *Queries) ListActiveCourtOverlaps(ctx context.Context, arg ListActiveCourtOverlapsParams) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE court_id = ?
		  AND status IN ('pending', 'confirmed')
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time`
	rows, err := q.db.QueryContext(ctx, query, arg.CourtID, arg.EndTime.UTC(), arg.StartTime.UTC())
	if err != nil {
		return nil, err
	}
	return q.scanReservations(rows)
}

type CountPlayerVenueDayParams struct {
	PlayerID int64
	VenueID  int64
	Date     string
}

// CountPlayerVenueDay counts a player's non-cancelled reservations at a venue
// on a civil date.
func (q *Queries) CountPlayerVenueDay(ctx context.Context, arg CountPlayerVenueDayParams) (int64, error) {
	const query = `SELECT COUNT(*) FROM reservations
		WHERE player_id = ? AND venue_id = ? AND date = ? AND status != 'cancelled'`
	var count int64
	err := q.db.QueryRowContext(ctx, query, arg.PlayerID, arg.VenueID, arg.Date).Scan(&count)
	return count, err
}

type CountBlockingOverlapsParams struct {
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
}

// CountBlockingOverlaps counts owner events on a court that block bookings
// and overlap the given interval. Informational events are excluded.
func (q *Queries) CountBlockingOverlaps(ctx context.Context, arg CountBlockingOverlapsParams) (int64, error) {
	const query = `SELECT COUNT(*) FROM blocking_events
		WHERE court_id = ?
		  AND blocks_bookings = 1
		  AND start_time < ?
		  AND end_time > ?`
	var count int64
	err := q.db.QueryRowContext(ctx, query, arg.CourtID, arg.EndTime.UTC(), arg.StartTime.UTC()).Scan(&count)
	return count, err
}

type ListPendingStartedBeforeParams struct {
	Date   string
	Cutoff time.Time
}

// ListPendingStartedBefore returns pending reservations on a civil date whose
// start time has already passed the cutoff. This is the no-show sweep
// selection; already-cancelled rows never reappear.
func (q *Queries) ListPendingStartedBefore(ctx context.Context, arg ListPendingStartedBeforeParams) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE date = ?
		  AND status = 'pending'
		  AND start_time <= ?
		ORDER BY start_time`
	rows, err := q.db.QueryContext(ctx, query, arg.Date, arg.Cutoff.UTC())
	if err != nil {
		return nil, err
	}
	return q.scanReservations(rows)
}

type ListCourtReservationsForDateParams struct {
	CourtID int64
	Date    string
}

func (q *Queries) ListCourtReservationsForDate(ctx context.Context, arg ListCourtReservationsForDateParams) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE court_id = ? AND date = ?
		ORDER BY start_time`
	rows, err := q.db.QueryContext(ctx, query, arg.CourtID, arg.Date)
	if err != nil {
		return nil, err
	}
	return q.scanReservations(rows)
}

type UpdateReservationStatusParams struct {
	ID                 int64
	Status             string
	CancellationReason sql.NullString
	UpdatedAt          time.Time
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	query := `UPDATE reservations
		SET status = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + reservationColumns
	return scanReservation(q.db.QueryRowContext(ctx, query,
		arg.Status, arg.CancellationReason, arg.UpdatedAt.UTC(), arg.ID,
	))
}

type SetReservationCheckedInParams struct {
	ID          int64
	Status      string
	CheckedInAt time.Time
}

func (q *Queries) SetReservationCheckedIn(ctx context.Context, arg SetReservationCheckedInParams) (Reservation, error) {
	query := `UPDATE reservations
		SET status = ?, checked_in_at = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + reservationColumns
	return scanReservation(q.db.QueryRowContext(ctx, query,
		arg.Status, arg.CheckedInAt.UTC(), arg.CheckedInAt.UTC(), arg.ID,
	))
}

type CreateBlockingEventParams struct {
	CourtID        int64
	OwnerID        int64
	StartTime      time.Time
	EndTime        time.Time
	Category       string
	BlocksBookings bool
}

func (q *Queries) CreateBlockingEvent(ctx context.Context, arg CreateBlockingEventParams) (BlockingEvent, error) {
	const query = `INSERT INTO blocking_events (court_id, owner_id, start_time, end_time, category, blocks_bookings)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, court_id, owner_id, start_time, end_time, category, blocks_bookings, created_at`
	var e BlockingEvent
	err := q.db.QueryRowContext(ctx, query,
		arg.CourtID, arg.OwnerID, arg.StartTime.UTC(), arg.EndTime.UTC(),
		arg.Category, arg.BlocksBookings,
	).Scan(&e.ID, &e.CourtID, &e.OwnerID, &e.StartTime, &e.EndTime, &e.Category, &e.BlocksBookings, &e.CreatedAt)
	return e, err
}

func (q *Queries) ListBlockingEventsByCourt(ctx context.Context, courtID int64) ([]BlockingEvent, error) {
	const query = `SELECT id, court_id, owner_id, start_time, end_time, category, blocks_bookings, created_at
		FROM blocking_events WHERE court_id = ? ORDER BY start_time`
	rows, err := q.db.QueryContext(ctx, query, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []BlockingEvent
	for rows.Next() {
		var e BlockingEvent
		if err := rows.Scan(&e.ID, &e.CourtID, &e.OwnerID, &e.StartTime, &e.EndTime, &e.Category, &e.BlocksBookings, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (q *Queries) DeleteBlockingEvent(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM blocking_events WHERE id = ?`
	result, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
