// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palaro-app/courtbook/internal/api/apiutil"
	"github.com/palaro-app/courtbook/internal/booking"
	appdb "github.com/palaro-app/courtbook/internal/db"
)

var (
	engine      *booking.Engine
	queries     *appdb.Queries
	handlerOnce sync.Once
)

const bookingQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine, database *appdb.DB) {
	if e == nil || database == nil {
		return
	}
	handlerOnce.Do(func() {
		engine = e
		queries = database.Queries
	})
}

type bookingRequest struct {
	PlayerID  int64     `json:"player_id"`
	CourtID   int64     `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type cancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// POST /api/v1/bookings
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.PlayerID <= 0 || req.CourtID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "player_id and court_id are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	created, err := engine.RequestBooking(ctx, booking.Request{
		PlayerID:  req.PlayerID,
		CourtID:   req.CourtID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeBookingError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to write booking response")
	}
}

// POST /api/v1/bookings/{id}/cancel
func HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	reservationID, err := reservationIDFromPath(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_id", "reservation id is required")
		return
	}

	var req cancelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	actor := booking.Actor(req.Actor)
	switch actor {
	case booking.ActorHolder, booking.ActorOwner:
	default:
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "actor must be holder or owner")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	cancelled, err := engine.CancelBooking(ctx, reservationID, actor, req.Reason, time.Now())
	if err != nil {
		writeBookingError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, cancelled); err != nil {
		logger.Error().Err(err).Int64("reservation_id", cancelled.ID).Msg("Failed to write cancel response")
	}
}

// POST /api/v1/bookings/{id}/confirm
func HandleBookingConfirm(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, func(ctx context.Context, id int64) (appdb.Reservation, error) {
		return engine.ConfirmBooking(ctx, id, time.Now())
	})
}

// POST /api/v1/bookings/{id}/checkin
func HandleBookingCheckIn(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, func(ctx context.Context, id int64) (appdb.Reservation, error) {
		return engine.CheckIn(ctx, id, time.Now())
	})
}

// POST /api/v1/bookings/{id}/complete
func HandleBookingComplete(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, func(ctx context.Context, id int64) (appdb.Reservation, error) {
		return engine.Complete(ctx, id, time.Now())
	})
}

func handleTransition(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64) (appdb.Reservation, error)) {
	logger := log.Ctx(r.Context())

	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	reservationID, err := reservationIDFromPath(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_id", "reservation id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	updated, err := apply(ctx, reservationID)
	if err != nil {
		writeBookingError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("reservation_id", updated.ID).Msg("Failed to write transition response")
	}
}

// GET /api/v1/bookings?court_id=...&date=YYYY-MM-DD
func HandleBookingsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := strconv.ParseInt(r.URL.Query().Get("court_id"), 10, 64)
	if err != nil || courtID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", "court_id is required")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", "date must be YYYY-MM-DD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	reservations, err := queries.ListCourtReservationsForDate(ctx, appdb.ListCourtReservationsForDateParams{
		CourtID: courtID,
		Date:    date,
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list reservations")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []appdb.Reservation{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, reservations); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write reservation list response")
	}
}

func reservationIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid reservation id")
	}
	return id, nil
}

// writeBookingError maps engine errors onto the HTTP surface. Conflicts and
// limit violations are user-visible 409s; store failures are retryable 503s.
func writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var (
		validationErr booking.ValidationError
		limitErr      booking.LimitReachedError
		overlapErr    booking.TimeOverlapConflict
		blockedErr    booking.BlockingEventConflict
		transitionErr booking.InvalidTransitionError
		storeErr      booking.TransientStoreError
	)
	switch {
	case errors.As(err, &validationErr):
		apiutil.WriteError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.As(err, &limitErr):
		apiutil.WriteError(w, http.StatusConflict, "limit_reached", limitErr.Error())
	case errors.As(err, &overlapErr):
		apiutil.WriteError(w, http.StatusConflict, "time_overlap", overlapErr.Error())
	case errors.As(err, &blockedErr):
		apiutil.WriteError(w, http.StatusConflict, "blocking_event", blockedErr.Error())
	case errors.As(err, &transitionErr):
		logger.Warn().Err(err).Msg("Invalid reservation transition attempted")
		apiutil.WriteError(w, http.StatusConflict, "invalid_transition", transitionErr.Error())
	case errors.As(err, &storeErr):
		logger.Error().Err(err).Msg("Booking store unavailable")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "The booking could not be verified, try again")
	default:
		logger.Error().Err(err).Msg("Unexpected booking failure")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
