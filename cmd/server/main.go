package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sosstock/internal/auth"
	"sosstock/internal/config"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/repository"
	"sosstock/internal/router"
	"sosstock/internal/service"
	"sosstock/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate schema")
		}
	}
	readDB, err := infra.NewReadDB(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open read pool")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Background email delivery. Jobs that fail are rescheduled by the retry
	// scheduler, which pauses while the SMTP breaker is open.
	mailer := infra.NewMailer(cfg)
	pool := worker.NewPool(rdb, m)
	pool.Handle(worker.QueueEmail, worker.JobTypeEmail, worker.NewEmailWorker(mailer))
	pool.Start(ctx, cfg.WorkerPoolSize)
	worker.StartRetryScheduler(ctx, rdb, mailer.Breaker(), worker.QueueEmail)

	// Alert board, reloaded on every NOTIFY from the alert triggers.
	dashboard := service.NewDashboardInvalidator(infra.NewRedisCache(rdb, router.CachePrefix))
	alertSvc := service.NewAlertService(repository.NewAlertRepository(db), dashboard, m)
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		alertSvc.Run(ctx, infra.NewListener(cfg.DatabaseURL, infra.AlertsChannel))
	}()

	r := router.New(cfg, router.Deps{
		DB:      db,
		ReadDB:  readDB,
		Redis:   rdb,
		Tokens:  auth.NewStore(rdb),
		Emails:  worker.NewDispatcher(rdb),
		Metrics: m,
		MailCB:  mailer.Breaker(),
		Alerts:  alertSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("SOSStock backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	// Stopping the feed ends the alert streams before HTTP drains.
	cancel()
	<-feedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
