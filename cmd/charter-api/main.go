// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"charter/internal/config"
	charterhttp "charter/internal/http"
	"charter/internal/infra"
	"charter/internal/logging"
	"charter/internal/maps"
	"charter/internal/modules/booking"
	"charter/internal/modules/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	pricingStore := pricing.NewStore(dbPool, logger)
	pricingSvc := pricing.NewService(pricingStore, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)

	var locator booking.StopLocator
	if cfg.MapsAPIKey != "" {
		stopLocator, err := maps.NewStopLocatorService(cfg.MapsAPIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		locator = stopLocator
	}

	sessionStore := booking.NewStore(redisClient)
	archive := booking.NewArchive(dbPool)
	bookingSvc := booking.NewService(sessionStore, pricingSvc, archive, locator, logger)

	handler := charterhttp.NewRouter(bookingSvc, pricingSvc, cfg.APIKey, logger)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
