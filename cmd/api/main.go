package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/internal/api/router"
	"github.com/glowupstudio/booking-platform/internal/booking"
	"github.com/glowupstudio/booking-platform/internal/catalog"
	appconfig "github.com/glowupstudio/booking-platform/internal/config"
	"github.com/glowupstudio/booking-platform/internal/http/handlers"
	"github.com/glowupstudio/booking-platform/internal/observability/metrics"
	"github.com/glowupstudio/booking-platform/internal/records"
	"github.com/glowupstudio/booking-platform/internal/session"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	bookingMetrics := metrics.NewBookingMetrics(nil)

	acuityOpts := []acuity.Option{
		acuity.WithTimeout(cfg.AcuityTimeout),
		acuity.WithNotesFieldID(cfg.NotesFieldID),
		acuity.WithObserver(bookingMetrics),
	}
	if cfg.AcuityBaseURL != "" {
		acuityOpts = append(acuityOpts, acuity.WithBaseURL(cfg.AcuityBaseURL))
	}
	acuityClient := acuity.NewClient(cfg.AcuityUserID, cfg.AcuityAPIKey, logger, acuityOpts...)
	if !acuityClient.Configured() {
		logger.Warn("acuity credentials not set; catalog and booking calls will fail")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The catalog is served straight from Acuity unless Redis is configured.
	var (
		source catalog.Source = acuityClient
		cache  *catalog.CachedSource
	)
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(rootCtx).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cache = catalog.NewCachedSource(acuityClient, rdb, cfg.CatalogCacheTTL, logger)
		source = cache
		logger.Info("catalog cache enabled", "ttl", cfg.CatalogCacheTTL.String())
	}

	var recordsService *records.Service
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		recordsService = records.NewService(records.NewRepository(pool), bookingMetrics, logger)
		logger.Info("booking records enabled")
	}

	sessions := session.NewStore(cfg.SessionTTL, logger)
	go sessions.StartSweeper(rootCtx, cfg.SessionSweepInterval)

	catalogHandler := catalog.NewHandler(source, cache, logger)
	var recorder booking.Recorder
	if recordsService != nil {
		recorder = recordsService
	}
	bookingHandler := handlers.NewBookingHandler(source, acuityClient, sessions, recorder, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		CatalogHandler:     catalogHandler,
		BookingHandler:     bookingHandler,
		AdminBookings:      handlers.NewAdminBookingsHandler(recordsService, logger),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookingRateLimit:   float64(cfg.BookingRateLimit),
		BookingRateBurst:   cfg.BookingRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
