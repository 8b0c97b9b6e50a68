package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/seismoview/quake-context-service/internal/adapter/cache"
	"github.com/seismoview/quake-context-service/internal/adapter/httpapi"
	"github.com/seismoview/quake-context-service/internal/adapter/postgres"
	"github.com/seismoview/quake-context-service/internal/config"
	"github.com/seismoview/quake-context-service/internal/observability"
	"github.com/seismoview/quake-context-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	cacheAside := service.NewCacheAside(cache.NewMemory(), logger, metrics)
	backfiller := service.NewBackfiller(store, store, logger, metrics)
	faultCtx := service.NewFaultContextService(store, store, backfiller, cacheAside, cfg.FaultContextTTL)
	clusters := service.NewClusterService(store, store, cacheAside, cfg.ClusterTTL, cfg.DefinitionTTL, logger, metrics)

	srv := httpapi.NewServer(
		cfg.HTTPAddr,
		faultCtx,
		clusters,
		store,
		httpapi.QueryDefaults{RadiusKm: cfg.DefaultSearchRadiusKm, Limit: cfg.DefaultFaultLimit},
		logger,
		metrics,
	)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
