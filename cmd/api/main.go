package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skinsignal-api/internal/cache"
	"skinsignal-api/internal/config"
	"skinsignal-api/internal/handler"
	"skinsignal-api/internal/logger"
	"skinsignal-api/internal/market"
	"skinsignal-api/internal/middleware"
	"skinsignal-api/internal/notify"
	"skinsignal-api/internal/repository"
	"skinsignal-api/internal/router"
	"skinsignal-api/internal/service"
	"skinsignal-api/internal/steam"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Environment, cfg.App.Debug)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Environment))

	// Store
	store, err := repository.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = store.Migrate(migrateCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Listing cache: Redis when configured, in-memory otherwise
	var listingStore cache.Cache
	if cfg.Cache.Type == "redis" {
		rc, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.RedisPrefix,
		}, log)
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory listing cache", zap.Error(err))
		} else {
			listingStore = rc
		}
	}
	if listingStore == nil {
		listingStore = cache.NewMemoryCache(cache.WithCleanupInterval(cfg.Cache.CleanupInterval))
	}
	defer listingStore.Close()

	// External collaborators
	inventory := steam.NewClient(cfg.Steam, log)
	listings := market.NewListingCache(market.NewCSFloatClient(cfg.Market, log), listingStore, cfg.Cache.ListingTTL, log)
	sender := notify.New(cfg.Twilio, log)

	// Services
	runner := service.NewDetachedRunner(cfg.Snapshot.AlertTimeout, log)
	sweeps := service.NewDetachedRunner(cfg.Snapshot.DailyTimeout, log)
	valuator := service.NewValuator(listings, store, log)
	evaluator := service.NewAlertEvaluator(store, sender, cfg.Snapshot.AlertCooldown, log)
	snapshots := service.NewSnapshotService(store, inventory, valuator, evaluator, runner, service.SnapshotConfig{
		RateLimit: cfg.Snapshot.RateLimit,
		FanOut:    cfg.Snapshot.FanOut,
	}, log)
	portfolio := service.NewPortfolioService(store, service.NewSaleScorer(store, listings, log), log)
	overrides := service.NewOverrideService(store)
	alerts := service.NewAlertService(store)
	phone := service.NewPhoneService(store, sender, log)
	daily := service.NewDailyScheduler(store, snapshots, service.DailyConfig{
		Interval: cfg.Snapshot.DailyInterval,
		Timeout:  cfg.Snapshot.DailyTimeout,
	}, log)

	if cfg.Snapshot.DailyEnabled {
		daily.Start()
	}

	// HTTP
	r := router.New(router.Config{
		Handler:          handler.New(cfg.App.Name, cfg.App.Version, store),
		PortfolioHandler: handler.NewPortfolioHandler(snapshots, portfolio, overrides),
		AlertHandler:     handler.NewAlertHandler(alerts),
		PhoneHandler:     handler.NewPhoneHandler(phone),
		AdminHandler:     handler.NewAdminHandler(store, daily, sweeps, runner, listings, log),
		AdminAuth: middleware.NewAuthMiddleware(middleware.AuthConfig{
			APIKeys: cfg.App.APIKeys,
			Logger:  log,
		}),
		AllowedOrigins: cfg.Server.CORSOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	// No new snapshots may start once the alert runner is drained.
	daily.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	sweeps.Cancel()
	if err := sweeps.Wait(ctx); err != nil {
		log.Warn("daily sweep still running at shutdown", zap.Error(err))
	}

	// Let in-flight alert evaluations finish before the store closes.
	if err := runner.Wait(ctx); err != nil {
		log.Warn("detached tasks still running at shutdown", zap.Error(err))
	}

	log.Info("server stopped", zap.Any("detached_tasks", runner.Stats()))
	return nil
}
