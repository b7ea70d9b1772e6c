package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palaro-app/courtbook/internal/booking"
)

const noShowSweepTimeout = 2 * time.Minute

// RegisterNoShowJob schedules the periodic sweep that reclaims slots from
// reservations whose holder never checked in. The sweep instant is taken
// once per run and handed to the engine explicitly.
func RegisterNoShowJob(s *Service, engine *booking.Engine, cronExpr string) error {
	if engine == nil {
		return fmt.Errorf("no-show job requires booking engine")
	}

	jobName := "no_show_sweep"
	jobLogger := log.With().
		Str("component", "no_show_sweep_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := s.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), noShowSweepTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		result, err := engine.SweepNoShows(ctx, time.Now())
		if err != nil {
			jobLogger.Error().Err(err).Msg("No-show sweep failed")
			return
		}
		if result.Cancelled > 0 || result.Failed > 0 {
			jobLogger.Info().
				Int("cancelled", result.Cancelled).
				Int("failed", result.Failed).
				Msg("No-show sweep completed")
		}
	})
	if err != nil {
		return fmt.Errorf("add no-show sweep job: %w", err)
	}

	jobLogger.Info().Msg("No-show sweep job registered")
	return nil
}
