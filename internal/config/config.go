package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// HTTPTimeout bounds each outbound upstream call; RequestTimeout bounds
	// one aggregate request end to end.
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	OpenWeatherAPIKey  string
	GoogleGeocoderKey  string
	NominatimUserAgent string
	// NASAAPIKey is read for completeness; the NASA endpoints used need no key.
	NASAAPIKey string

	EarthEngineKeyPath string
	EarthEngineProject string

	// SyntheticSeed makes synthetic data reproducible; 0 picks a random seed.
	SyntheticSeed uint64

	// ProbeInterval controls how often upstream health is checked.
	ProbeInterval time.Duration

	// Status store retention.
	StatusMaxHistory int           // max probes per source (0 = unlimited)
	StatusMaxAge     time.Duration // max age of probes (0 = unlimited)

	// AuditSQLitePath enables the outcome audit log when set.
	AuditSQLitePath string

	// MQTT degradation events are published when MQTTBroker is set.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}
	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.OpenWeatherAPIKey = getenvDefault("NEXT_PUBLIC_OPENWEATHER_API_KEY", os.Getenv("OPENWEATHER_API_KEY"))
	cfg.GoogleGeocoderKey = strings.TrimSpace(os.Getenv("GOOGLE_GEOCODER_API_KEY"))
	cfg.NominatimUserAgent = strings.TrimSpace(os.Getenv("NOMINATIM_USER_AGENT"))
	cfg.NASAAPIKey = strings.TrimSpace(os.Getenv("NASA_API"))

	cfg.EarthEngineKeyPath = strings.TrimSpace(os.Getenv("GEE_PRIVATE_KEY_PATH"))
	cfg.EarthEngineProject = strings.TrimSpace(os.Getenv("GEE_PROJECT"))

	if v := strings.TrimSpace(os.Getenv("SYNTHETIC_SEED")); v != "" {
		if cfg.SyntheticSeed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid SYNTHETIC_SEED %q: %w", v, err)
		}
	}

	// Probe interval: default 15 minutes.
	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	cfg.StatusMaxHistory = getenvInt("STATUS_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StatusMaxAge, err = getenvDuration("STATUS_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.AuditSQLitePath = strings.TrimSpace(os.Getenv("AUDIT_SQLITE_PATH"))

	cfg.MQTTBroker = strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	cfg.MQTTPort = getenvInt("MQTT_PORT", 1883)
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "climate-data-aggregation")
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "climate/degraded")

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
