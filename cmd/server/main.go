package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/config"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/router"
	"github.com/OskolkovOleg/sklad-monitoring/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	// Redis is optional: without it reads are uncached and recomputes run inline.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache and job queue")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pdf := infra.NewPDFReport(cfg.PDFFontPath)
	mailer := infra.NewMailer(cfg)
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))

	svcs := router.NewServices(cfg, db, rdb, pdf)

	// Worker handlers are wired here (composition root) so the pool has
	// access to every infrastructure dependency.
	worker.StartWorkerPool(ctx, rdb, worker.Handlers{
		Recalculate: worker.NewRecalcWorker(svcs.Aggregations),
		AlertEmail:  worker.NewEmailWorker(mailer, mailCB, pdf, cfg.ReportStoragePath),
	}, cfg.WorkerPoolSize)
	worker.StartTickCron(ctx, worker.TickCronConfig{
		Simulator: svcs.Simulation,
		Interval:  time.Duration(cfg.SimulationIntervalSeconds) * time.Second,
	})

	if res, err := svcs.Aggregations.RecalculateAll(ctx); err != nil {
		log.Error().Err(err).Msg("initial recompute failed, serving last snapshot")
	} else {
		log.Info().Int("warehouses", res.Warehouses).Int("locations", res.Locations).
			Int("skus", res.SKUs).Msg("initial recompute done")
	}

	r := router.New(cfg, db, rdb, svcs, mailCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("sklad-monitoring listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
