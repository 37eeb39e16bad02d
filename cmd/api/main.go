package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tablebook/internal/api"
	"tablebook/internal/config"
	"tablebook/internal/database"
	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/export"
	"tablebook/internal/logging"
	"tablebook/internal/metrics"
	"tablebook/internal/repository"
	"tablebook/internal/service"
	"tablebook/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initAvailabilityCache(cfg, redisClient, &logger)

	exporter := export.NewScheduleExporter(db, cfg.Exports.Path, &logger)
	exportWorker := worker.NewExportWorker(exporter, redisClient, worker.RetryPolicy{}, &logger)
	go exportWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeGroupEvents(eventBus, &logger)

	bookingService := service.NewBookingService(db, cache, eventBus, exportWorker, &logger,
		cfg.Restaurant.MaxBookingDays, cfg.Restaurant.MaxPartySize)
	availabilityService := service.NewAvailabilityService(db, cache, &logger,
		cfg.Restaurant.MaxBookingDays, cfg.Restaurant.MaxPartySize)
	customerService := service.NewCustomerService(db, &logger)
	tableService := service.NewTableService(db, &logger)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	var apiServer *api.HTTPServer
	if cfg.API.Enabled {
		apiServer = api.NewHTTPServer(cfg.API, availabilityService, bookingService, customerService, tableService, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("API server shutdown error")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config) error {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return err
		}
	}
	return os.MkdirAll(cfg.Exports.Path, 0o755)
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := repository.NewRedisClient(cfg.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching degrades to memory")
	}
	return client
}

// initAvailabilityCache builds the failover pair: redis when
// configured, with an in-process cache behind it. Without redis, the
// in-process cache serves alone.
func initAvailabilityCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.AvailabilityCache {
	ttl := time.Duration(cfg.Restaurant.AvailabilityCacheTTLs) * time.Second
	memory := repository.NewMemoryAvailabilityCache(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisAvailabilityCache(redisClient, ttl)
	return repository.NewFailoverAvailabilityCache(primary, memory, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// subscribeGroupEvents attaches audit logging to the booking lifecycle
// events. External integrations subscribe the same way.
func subscribeGroupEvents(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		payload, err := events.DecodeGroupPayload(ev)
		if err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("group_id", payload.GroupID).
			Str("date", payload.BookingDate).
			Str("slot", payload.BookingTime).
			Int("party_size", payload.PartySize).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventGroupCreated, handler)
	bus.Subscribe(events.EventGroupUpdated, handler)
	bus.Subscribe(events.EventGroupCancelled, handler)
}
