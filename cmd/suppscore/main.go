package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Suppscore/internal/api"
	"github.com/MikeSquared-Agency/Suppscore/internal/cache"
	"github.com/MikeSquared-Agency/Suppscore/internal/catalog"
	"github.com/MikeSquared-Agency/Suppscore/internal/cms"
	"github.com/MikeSquared-Agency/Suppscore/internal/config"
	"github.com/MikeSquared-Agency/Suppscore/internal/hermes"
	"github.com/MikeSquared-Agency/Suppscore/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	// Product catalog: Postgres, then CMS, then fixtures
	var products catalog.Source
	switch {
	case cfg.Database.URL != "":
		db, err := catalog.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		products = db
		logger.Info("connected to database")
	case cfg.CMS.URL != "":
		products = cms.NewHTTPClient(cfg.CMS.URL, cfg.CMS.APIKey)
		logger.Info("reading products from cms", "url", cfg.CMS.URL)
	default:
		mem := catalog.NewMemoryStore()
		if cfg.Catalog.FixturesPath != "" {
			fixtures, err := catalog.LoadFixtures(cfg.Catalog.FixturesPath)
			if err != nil {
				logger.Error("failed to load fixtures", "error", err)
				os.Exit(1)
			}
			mem = catalog.NewMemoryStore(fixtures...)
			logger.Info("loaded product fixtures", "count", len(fixtures))
		}
		products = mem
	}

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Result cache (optional)
	var resultCache cache.Cache = cache.Nop{}
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.URL, cfg.CacheTTL())
		if err != nil {
			logger.Warn("failed to connect to redis, running without cache", "error", err)
		} else {
			resultCache = rc
			defer rc.Close()
			logger.Info("connected to redis", "ttl", cfg.CacheTTL())
		}
	}

	svc := api.NewService(api.ServiceOptions{
		Products:           products,
		Cache:              resultCache,
		Hermes:             hermesClient,
		Weights:            cfg.Scoring.Weights,
		ReferenceCostPerMg: cfg.Scoring.ReferenceCostPerMg,
		CompareConcurrency: cfg.Scoring.CompareConcurrency,
	}, logger)

	// Drop cached results when the catalog announces a product change
	if err := svc.SetupSubscriptions(); err != nil {
		logger.Warn("failed to subscribe to product events", "error", err)
	}

	// API server
	router := api.NewRouter(svc, cfg.Server.AdminToken, cfg.Server.RateLimitPerMin, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
