// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/palaro-app/courtbook/internal/api"
	"github.com/palaro-app/courtbook/internal/api/blockingevents"
	"github.com/palaro-app/courtbook/internal/api/bookings"
	"github.com/palaro-app/courtbook/internal/booking"
	"github.com/palaro-app/courtbook/internal/config"
	"github.com/palaro-app/courtbook/internal/db"
)

func newServer(cfg *config.Config, engine *booking.Engine, database *db.DB) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	bookings.InitHandlers(engine, database)
	blockingevents.InitHandlers(database.Queries)
	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Booking routes
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleBookingCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleBookingsList)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.HandleBookingCancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/confirm", bookings.HandleBookingConfirm)
	mux.HandleFunc("POST /api/v1/bookings/{id}/checkin", bookings.HandleBookingCheckIn)
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", bookings.HandleBookingComplete)

	// Owner calendar routes
	mux.HandleFunc("POST /api/v1/blocking-events", blockingevents.HandleEventCreate)
	mux.HandleFunc("GET /api/v1/blocking-events", blockingevents.HandleEventsList)
	mux.HandleFunc("DELETE /api/v1/blocking-events/{id}", blockingevents.HandleEventDelete)
}
