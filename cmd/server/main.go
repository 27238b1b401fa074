package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/himTresor1/celia-sub001/internal/bootstrap"
	"github.com/himTresor1/celia-sub001/internal/config"
	"github.com/himTresor1/celia-sub001/internal/server"
	"github.com/himTresor1/celia-sub001/internal/worker"
	"github.com/himTresor1/celia-sub001/pkg/database"
	"github.com/himTresor1/celia-sub001/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, tracing, err := telemetry.Init(ctx, "celia-api", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedDemoUsers(db); err != nil {
			return err
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient == nil {
		slog.Warn("REDIS_URL not set: rate limits and live notifications are disabled")
	} else {
		defer redisClient.Close()
	}

	services := bootstrap.NewServices(cfg, db, redisClient)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	services.Dispatcher.Start(dispatchCtx)

	scheduler := worker.NewScheduler(logger)
	if err := scheduler.Register(worker.NewPulseSweepJob(services.Connections, cfg.PulseSweepCron)); err != nil {
		stopDispatch()
		return err
	}
	scheduler.Start()

	srv := server.NewServer(cfg, db, redisClient, services, logger, tracing)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		errCh <- srv.Run()
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("http shutdown failed", "error", shutdownErr)
	}
	scheduler.Stop(shutdownCtx)
	stopDispatch()
	services.Dispatcher.Wait()

	return err
}
