// internal/booking/engine.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/palaro-app/courtbook/internal/civil"
	"github.com/palaro-app/courtbook/internal/db"
	"github.com/palaro-app/courtbook/internal/events"
)

const DefaultNoShowGrace = 15 * time.Minute

// Options carries the named policy parameters of the engine. Zero values
// fall back to Manila time and the default grace window.
type Options struct {
	Location    *time.Location
	NoShowGrace time.Duration
	// AutoConfirm makes every venue confirm bookings on creation. A venue's
	// own auto_confirm flag also enables this per venue.
	AutoConfirm bool
}

// Engine is the only component that creates reservations or mutates their
// status. All evaluation instants are explicit parameters so behavior is
// reproducible in tests.
type Engine struct {
	store       *db.DB
	publisher   events.Publisher
	loc         *time.Location
	grace       time.Duration
	autoConfirm bool
}

func NewEngine(store *db.DB, publisher events.Publisher, opts Options) *Engine {
	loc := opts.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(civil.DefaultZone)
		if err != nil {
			loc = time.UTC
		}
	}
	grace := opts.NoShowGrace
	if grace == 0 {
		grace = DefaultNoShowGrace
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Engine{
		store:       store,
		publisher:   publisher,
		loc:         loc,
		grace:       grace,
		autoConfirm: opts.AutoConfirm,
	}
}

// Location returns the civil timezone the engine attributes dates in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Request is a booking attempt from a player for a court interval.
type Request struct {
	PlayerID  int64
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
}

// RequestBooking validates the request, then runs limit check, conflict
// check, and insert inside one transaction so both checks see the snapshot
// the insert commits against. The partial unique indexes on the reservations
// table back the same invariants at the storage layer; a constraint
// violation is translated to the matching conflict error rather than
// surfaced raw.
func (e *Engine) RequestBooking(ctx context.Context, req Request) (db.Reservation, error) {
	if !req.StartTime.Before(req.EndTime) {
		return db.Reservation{}, ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}

	court, err := e.store.Queries.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, ValidationError{Field: "court_id", Reason: "court does not exist"}
		}
		return db.Reservation{}, TransientStoreError{Op: "court lookup", Err: err}
	}
	if !court.Active {
		return db.Reservation{}, ValidationError{Field: "court_id", Reason: "court is inactive"}
	}

	venue, err := e.store.Queries.GetVenue(ctx, court.VenueID)
	if err != nil {
		return db.Reservation{}, TransientStoreError{Op: "venue lookup", Err: err}
	}

	status := StatusPending
	if e.autoConfirm || venue.AutoConfirm {
		status = StatusConfirmed
	}

	date := civil.DateOf(req.StartTime, e.loc)

	var created db.Reservation
	err = e.store.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries

		exceeded, err := NewDailyLimitEnforcer(qtx).WouldExceed(ctx, req.PlayerID, venue.ID, date)
		if err != nil {
			return err
		}
		if exceeded {
			return LimitReachedError{PlayerID: req.PlayerID, VenueID: venue.ID, Date: date}
		}

		if err := NewConflictChecker(qtx).Check(ctx, court.ID, req.StartTime, req.EndTime); err != nil {
			return err
		}

		created, err = qtx.CreateReservation(ctx, db.CreateReservationParams{
			PlayerID:  req.PlayerID,
			CourtID:   court.ID,
			VenueID:   venue.ID,
			Date:      date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Status:    string(status),
		})
		if err != nil {
			return translateConstraintError(err, req, venue.ID, date)
		}
		return nil
	})
	if err != nil {
		return db.Reservation{}, err
	}

	if err := e.publisher.BookingCreated(ctx, created); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to publish booking created event")
	}
	return created, nil
}

// ConfirmBooking moves a pending reservation to confirmed.
func (e *Engine) ConfirmBooking(ctx context.Context, reservationID int64, now time.Time) (db.Reservation, error) {
	return e.transition(ctx, reservationID, StatusConfirmed, sql.NullString{}, now)
}

// CancelBooking cancels a pending or confirmed reservation, recording who
// cancelled and why. Terminal reservations are left untouched.
func (e *Engine) CancelBooking(ctx context.Context, reservationID int64, actor Actor, reason string, now time.Time) (db.Reservation, error) {
	if reason == "" {
		reason = DefaultCancellationReason(actor)
	}
	cancelled, err := e.transition(ctx, reservationID, StatusCancelled, sql.NullString{String: reason, Valid: true}, now)
	if err != nil {
		return db.Reservation{}, err
	}

	if err := e.publisher.BookingCancelled(ctx, cancelled, reason); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("reservation_id", cancelled.ID).Msg("Failed to publish booking cancelled event")
	}
	return cancelled, nil
}

// CheckIn records attendance. A pending reservation is promoted to confirmed
// at the same time, which removes it from the no-show sweep.
func (e *Engine) CheckIn(ctx context.Context, reservationID int64, now time.Time) (db.Reservation, error) {
	var updated db.Reservation
	err := e.store.RunInTx(ctx, func(txdb *db.DB) error {
		current, err := txdb.Queries.GetReservation(ctx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ValidationError{Field: "reservation_id", Reason: "reservation does not exist"}
			}
			return TransientStoreError{Op: "reservation lookup", Err: err}
		}

		from := Status(current.Status)
		if from != StatusPending && from != StatusConfirmed {
			return InvalidTransitionError{ReservationID: reservationID, From: from, To: StatusConfirmed}
		}

		updated, err = txdb.Queries.SetReservationCheckedIn(ctx, db.SetReservationCheckedInParams{
			ID:          reservationID,
			Status:      string(StatusConfirmed),
			CheckedInAt: now,
		})
		if err != nil {
			return TransientStoreError{Op: "check-in update", Err: err}
		}
		return nil
	})
	return updated, err
}

// Complete marks a confirmed reservation completed once its interval has
// elapsed and attendance was recorded.
func (e *Engine) Complete(ctx context.Context, reservationID int64, now time.Time) (db.Reservation, error) {
	var updated db.Reservation
	err := e.store.RunInTx(ctx, func(txdb *db.DB) error {
		current, err := txdb.Queries.GetReservation(ctx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ValidationError{Field: "reservation_id", Reason: "reservation does not exist"}
			}
			return TransientStoreError{Op: "reservation lookup", Err: err}
		}

		from := Status(current.Status)
		if !CanTransition(from, StatusCompleted) {
			return InvalidTransitionError{ReservationID: reservationID, From: from, To: StatusCompleted}
		}
		if now.Before(current.EndTime) {
			return ValidationError{Field: "reservation_id", Reason: "reservation has not ended yet"}
		}
		if !current.CheckedInAt.Valid {
			return ValidationError{Field: "reservation_id", Reason: "attendance was not recorded"}
		}

		updated, err = txdb.Queries.UpdateReservationStatus(ctx, db.UpdateReservationStatusParams{
			ID:        reservationID,
			Status:    string(StatusCompleted),
			UpdatedAt: now,
		})
		if err != nil {
			return TransientStoreError{Op: "status update", Err: err}
		}
		return nil
	})
	return updated, err
}

// SweepResult reports one no-show sweep pass.
type SweepResult struct {
	Cancelled int
	Failed    int
}

// SweepNoShows cancels pending reservations on asOf's civil date whose start
// passed at least the grace window ago. Individual failures are logged and
// counted; the sweep keeps going. Running it again over unchanged data
// cancels nothing, because cancellation is terminal and the selection only
// sees pending rows.
func (e *Engine) SweepNoShows(ctx context.Context, asOf time.Time) (SweepResult, error) {
	date := civil.DateOf(asOf, e.loc)
	cutoff := asOf.Add(-e.grace)

	overdue, err := e.store.Queries.ListPendingStartedBefore(ctx, db.ListPendingStartedBeforeParams{
		Date:   date,
		Cutoff: cutoff,
	})
	if err != nil {
		return SweepResult{}, TransientStoreError{Op: "no-show selection", Err: err}
	}

	logger := log.Ctx(ctx)
	var result SweepResult
	for _, r := range overdue {
		if _, err := e.CancelBooking(ctx, r.ID, ActorSweeper, ReasonAutoCancelledNoShow, asOf); err != nil {
			// A row already cancelled by a concurrent actor is not a sweep
			// failure; everything else is counted and the sweep continues.
			var invalid InvalidTransitionError
			if errors.As(err, &invalid) {
				continue
			}
			logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("Failed to cancel no-show reservation")
			result.Failed++
			continue
		}
		logger.Info().
			Int64("reservation_id", r.ID).
			Int64("player_id", r.PlayerID).
			Int64("court_id", r.CourtID).
			Time("start_time", r.StartTime).
			Msg("Cancelled no-show reservation")
		result.Cancelled++
	}
	return result, nil
}

// transition applies a single lifecycle edge inside a transaction, re-reading
// the current status so concurrent mutations cannot be overwritten.
func (e *Engine) transition(ctx context.Context, reservationID int64, to Status, reason sql.NullString, now time.Time) (db.Reservation, error) {
	var updated db.Reservation
	err := e.store.RunInTx(ctx, func(txdb *db.DB) error {
		current, err := txdb.Queries.GetReservation(ctx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ValidationError{Field: "reservation_id", Reason: "reservation does not exist"}
			}
			return TransientStoreError{Op: "reservation lookup", Err: err}
		}

		from := Status(current.Status)
		if !CanTransition(from, to) {
			return InvalidTransitionError{ReservationID: reservationID, From: from, To: to}
		}

		updated, err = txdb.Queries.UpdateReservationStatus(ctx, db.UpdateReservationStatusParams{
			ID:                 reservationID,
			Status:             string(to),
			CancellationReason: reason,
			UpdatedAt:          now,
		})
		if err != nil {
			return TransientStoreError{Op: "status update", Err: err}
		}
		return nil
	})
	return updated, err
}

// translateConstraintError maps a unique-index violation from the insert
// backstop to the conflict error the checks would have produced.
func translateConstraintError(err error, req Request, venueID int64, date string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		if strings.Contains(sqliteErr.Error(), "ux_reservations_daily_limit") {
			return LimitReachedError{PlayerID: req.PlayerID, VenueID: venueID, Date: date}
		}
		return TimeOverlapConflict{CourtID: req.CourtID}
	}
	return TransientStoreError{Op: "reservation insert", Err: err}
}
