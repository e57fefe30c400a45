package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	httpapi "github.com/i474232898/climate-data-aggregation/internal/api/http"
	"github.com/i474232898/climate-data-aggregation/internal/audit"
	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/climate/providers"
	"github.com/i474232898/climate-data-aggregation/internal/climate/synthetic"
	"github.com/i474232898/climate-data-aggregation/internal/config"
	"github.com/i474232898/climate-data-aggregation/internal/earthengine"
	"github.com/i474232898/climate-data-aggregation/internal/events"
	"github.com/i474232898/climate-data-aggregation/internal/logging"
	"github.com/i474232898/climate-data-aggregation/internal/scheduler"
	"github.com/i474232898/climate-data-aggregation/internal/store"
)

const appName = "climate-data-aggregation"

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg, version, appName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
	log.Info("shut down")
}

// run wires every component and serves until ctx is done. Resources are
// released by defers, so every return path closes what was opened.
func run(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker).
	live := climate.Sources{
		Temperature:       providers.NewNASAPowerProvider(httpClient, log),
		GlobalTemperature: providers.NewGISTEMPProvider(httpClient, log),
		CO2:               providers.NewWorldBankProvider(httpClient, log),
	}
	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, log)
	live.Pollution = owm
	live.PollutionHistory = owm
	if cfg.OpenWeatherAPIKey == "" {
		log.Warn("openweathermap api key not set; air quality will be synthetic")
	}

	gen := synthetic.NewRandom()
	if cfg.SyntheticSeed != 0 {
		gen = synthetic.New(cfg.SyntheticSeed)
	}
	fallback := climate.Sources{
		Temperature:      gen,
		CO2:              gen,
		Pollution:        gen,
		PollutionHistory: gen,
	}

	// Google first when configured; Nominatim fills in the country code.
	var geocoders climate.ChainGeocoder
	if cfg.GoogleGeocoderKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderKey))
	}
	geocoders = append(geocoders, providers.NewNominatimGeocoder(httpClient, cfg.NominatimUserAgent, log))

	// In-memory probe history with configured retention.
	statusStore := store.NewMemoryStore(cfg.StatusMaxHistory, cfg.StatusMaxAge)

	svcCfg := climate.ServiceConfig{
		Live:      live,
		Synthetic: fallback,
		Geocoder:  geocoders,
		Status:    statusStore,
		Logger:    log,
	}

	var auditLog httpapi.AuditLog
	if cfg.AuditSQLitePath != "" {
		db, err := audit.Open(cfg.AuditSQLitePath)
		if err != nil {
			return fmt.Errorf("open audit database %s: %w", cfg.AuditSQLitePath, err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("audit database close", "error", err)
			}
		}()
		repo := audit.NewRepository(db, log)
		svcCfg.Recorder = repo
		auditLog = repo
		log.Info("audit log enabled", "path", cfg.AuditSQLitePath)
	}

	if cfg.MQTTBroker != "" {
		pub := events.NewPublisher(events.Config{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, log)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := pub.Connect(connectCtx); err != nil {
			// Auto-reconnect keeps trying; events are dropped until connected.
			log.Warn("mqtt broker not reachable yet", "broker", cfg.MQTTBroker, "error", err)
		}
		cancel()
		defer pub.Close()
		svcCfg.Publisher = pub
	}

	// Core service orchestrating providers, fallbacks and sinks. Pending
	// reports are drained before the sinks above are closed.
	service := climate.NewService(svcCfg)
	defer service.Wait()

	// Earth Engine authenticates lazily on first use.
	ee := earthengine.NewSession(earthengine.Config{
		KeyPath: cfg.EarthEngineKeyPath,
		Project: cfg.EarthEngineProject,
	}, &http.Client{Timeout: 2 * cfg.RequestTimeout}, log)
	defer ee.Close()

	// Scheduler that periodically probes the upstreams.
	sched := scheduler.New(service, cfg.ProbeInterval, cfg.RequestTimeout, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(appName)

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Climate:        service,
		EarthEngine:    ee,
		Audit:          auditLog,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("http shutting down")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return ctx.Err()
}
