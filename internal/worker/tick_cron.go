package worker

// tick_cron.go
// Background goroutine that runs the demo stock simulation on a fixed
// interval. Ticks never overlap: a slow tick delays the next one.

import (
	"context"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"

	"github.com/rs/zerolog/log"
)

// Simulator produces one simulated tick followed by a recompute.
type Simulator interface {
	Tick(ctx context.Context) (*dto.TickResult, error)
}

// TickCronConfig holds all dependencies for the tick goroutine.
type TickCronConfig struct {
	Simulator Simulator
	Interval  time.Duration
}

// StartTickCron launches the simulation ticker. A zero interval disables it.
// It respects the context for graceful shutdown.
func StartTickCron(ctx context.Context, cfg TickCronConfig) {
	if cfg.Interval <= 0 || cfg.Simulator == nil {
		log.Info().Msg("tick_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("tick_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("tick_cron: shutting down")
				return
			case <-ticker.C:
				runTick(ctx, cfg.Simulator)
			}
		}
	}()
}

func runTick(ctx context.Context, sim Simulator) {
	res, err := sim.Tick(ctx)
	if err != nil {
		log.Error().Err(err).Msg("tick_cron: tick failed")
		return
	}
	log.Info().
		Int("changed", res.Changed).
		Int("moves", res.Moves).
		Int("gray", res.GrayHoles).
		Int("restored", res.Restored).
		Msg("tick_cron: tick applied")
}
