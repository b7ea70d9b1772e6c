// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/palaro-app/courtbook/internal/booking"
	"github.com/palaro-app/courtbook/internal/config"
	"github.com/palaro-app/courtbook/internal/db"
	"github.com/palaro-app/courtbook/internal/events"
	"github.com/palaro-app/courtbook/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect event publisher")
	}
	defer publisher.Close()

	engine := booking.NewEngine(database, publisher, booking.Options{
		Location:    cfg.Location(),
		NoShowGrace: cfg.NoShowGrace(),
		AutoConfirm: cfg.Booking.AutoConfirm,
	})

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := scheduler.RegisterNoShowJob(sched, engine, cfg.Booking.SweepCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register no-show sweep job")
	}
	sched.Start()

	server := newServer(cfg, engine, database)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("timezone", cfg.Booking.Timezone).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		log.Warn().Msg("No AMQP URL configured, booking events will not be published")
		return events.NopPublisher{}, nil
	}
	exchange := cfg.Events.Exchange
	if exchange == "" {
		exchange = "courtbook.bookings"
	}
	publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, exchange)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
