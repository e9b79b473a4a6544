package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tourney/internal/backend"
	"tourney/internal/cli"
	applog "tourney/internal/log"
	"tourney/internal/services"
	"tourney/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting tourney-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Invalid worker configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, cleanupStore := cli.InitStore(ctx, logger, cfg)
	defer cleanupStore()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger.Logger).CreateExporter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger exporter", "error", err)
		os.Exit(1)
	}

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("tourney-worker requires AMQP_URL")
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledgerWorker := worker.NewLedgerWorker(st, exporter)
	sweeper := services.NewReminderSweeper(st, services.ReminderSweeperConfig{Interval: cfg.ReminderSweepInterval})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := sweeper.Stop(ctx); err != nil {
			logger.Warn("Reminder sweeper stop", "error", err)
		}
	})

	// Bind the queue before reconciling so no write falls between the two.
	queue, err := amqpClient.DeclareQueue("", true, worker.RoutingKeys()...)
	if err != nil {
		logger.Error("Failed to declare export queue", "error", err)
		os.Exit(1)
	}

	if _, err := ledgerWorker.Reconcile(shutdownCtx); err != nil {
		logger.Error("Startup ledger reconcile failed", "error", err)
	}

	if err := sweeper.Start(shutdownCtx); err != nil {
		logger.Error("Failed to start reminder sweeper", "error", err)
	}

	go func() {
		if err := amqpClient.ConsumeMutations(shutdownCtx, queue, ledgerWorker.HandleMutation); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	logger.Info("Worker started", "queue", queue, "reminder_sweep_interval", cfg.ReminderSweepInterval)
	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("tourney-worker stopped")
}
