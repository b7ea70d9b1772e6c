// internal/api/blockingevents/handlers.go
package blockingevents

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palaro-app/courtbook/internal/api/apiutil"
	appdb "github.com/palaro-app/courtbook/internal/db"
)

var (
	queries     *appdb.Queries
	queriesOnce sync.Once
)

const eventQueryTimeout = 5 * time.Second

var validCategories = map[string]bool{
	"maintenance":   true,
	"cleaning":      true,
	"closure":       true,
	"private_event": true,
	"other":         true,
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *appdb.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

type createEventRequest struct {
	CourtID        int64     `json:"court_id"`
	OwnerID        int64     `json:"owner_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Category       string    `json:"category"`
	BlocksBookings *bool     `json:"blocks_bookings,omitempty"`
}

// POST /api/v1/blocking-events
func HandleEventCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req createEventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.CourtID <= 0 || req.OwnerID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "court_id and owner_id are required")
		return
	}
	if !req.StartTime.Before(req.EndTime) {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "end_time must be after start_time")
		return
	}
	if req.Category == "" {
		req.Category = "other"
	}
	if !validCategories[req.Category] {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "unknown category")
		return
	}
	blocks := true
	if req.BlocksBookings != nil {
		blocks = *req.BlocksBookings
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	if _, err := queries.GetCourt(ctx, req.CourtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "court does not exist")
			return
		}
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to validate court")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to validate court")
		return
	}

	created, err := queries.CreateBlockingEvent(ctx, appdb.CreateBlockingEventParams{
		CourtID:        req.CourtID,
		OwnerID:        req.OwnerID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Category:       req.Category,
		BlocksBookings: blocks,
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to create blocking event")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to create blocking event")
		return
	}

	logger.Info().
		Int64("event_id", created.ID).
		Int64("court_id", created.CourtID).
		Str("category", created.Category).
		Msg("Blocking event created")

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("event_id", created.ID).Msg("Failed to write blocking event response")
	}
}

// GET /api/v1/blocking-events?court_id=...
func HandleEventsList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	events, err := queries.ListBlockingEventsByCourt(ctx, courtID)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list blocking events")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to list blocking events")
		return
	}
	if events == nil {
		events = []appdb.BlockingEvent{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, events); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write blocking events response")
	}
}

// DELETE /api/v1/blocking-events/{id}
func HandleEventDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	eventID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || eventID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_id", "event id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	deleted, err := queries.DeleteBlockingEvent(ctx, eventID)
	if err != nil {
		logger.Error().Err(err).Int64("event_id", eventID).Msg("Failed to delete blocking event")
		apiutil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to delete blocking event")
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, http.StatusNotFound, "not_found", "blocking event does not exist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
