package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"tourney/internal/amqp"
	"tourney/internal/cache"
	"tourney/internal/cli"
	apphttp "tourney/internal/http"
	applog "tourney/internal/log"
	"tourney/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	st, cleanupStore := cli.InitStore(ctx, logger, cfg)
	defer cleanupStore()

	gens, closeGens := cli.InitGenerations(ctx, logger, cfg)
	if closeGens != nil {
		defer closeGens()
	}

	views := services.NewViewCaches(gens, cfg.CacheMaxEntries, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(views.Cleaners()...)
	cacheManager.StartCleanup(cfg.CacheTTL)

	invalidator := cache.NewInvalidator(gens)

	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	mutations := services.NewMutationService(st, invalidator, publisher, cfg.InstanceID)
	dashboard := services.NewDashboardService(st, views)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               net.JoinHostPort("", cfg.Port),
		StoreTimeout:       cfg.StoreTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, st, mutations, dashboard)

	shutdownCtx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		cacheManager.Stop()
	})

	if amqpClient != nil {
		startInvalidationListener(shutdownCtx, logger, amqpClient, invalidator, cfg.InstanceID)
	}

	logger.Info("Starting tourney API", "addr", srv.Addr, "backend", cfg.DataBackend, "instance_id", cfg.InstanceID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	}
}

// startInvalidationListener binds an exclusive queue to every mutation so
// writes made by other instances invalidate this instance's view cache.
func startInvalidationListener(ctx context.Context, logger *applog.Logger, client *amqp.Client, inv *cache.Invalidator, instanceID string) {
	queue, err := client.DeclareQueue("", false, amqp.RoutingAll)
	if err != nil {
		logger.Warn("Cross-instance invalidation disabled", "error", err)
		return
	}
	listener := services.NewInvalidationListener(inv, instanceID)
	go func() {
		if err := client.ConsumeMutations(ctx, queue, listener.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Invalidation listener stopped", "error", err)
		}
	}()
	logger.Info("Invalidation listener started", "queue", queue)
}
