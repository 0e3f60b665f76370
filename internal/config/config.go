package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/toko-cart/internal/common"
)

// Config holds process configuration loaded from the environment.
// Runtime feature switches (tax, quantities, saving) live in the settings package instead.
type Config struct {
	AppEnv           string
	RedisURL         string
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	CartTTL          time.Duration
	SavedCartTTL     time.Duration
	CatalogCacheTTL  time.Duration
	LockTTL          time.Duration
	CurrencyPlaces   int32

	TracingExporter    string
	TracingEndpoint    string
	TracingServiceName string
	TracingSampleRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), "toko_cart"),
		CartTTL:            parseDuration(k.String("CART_TTL"), "168h"),
		SavedCartTTL:       parseDuration(k.String("SAVED_CART_TTL"), "720h"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		LockTTL:            parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CurrencyPlaces:     int32(common.AtoiDefault(strings.TrimSpace(k.String("CURRENCY_PLACES")), 2)),
		TracingExporter:    valueOrDefault(k.String("TRACING_EXPORTER"), "none"),
		TracingEndpoint:    strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingServiceName: valueOrDefault(k.String("OTEL_SERVICE_NAME"), "toko-cart"),
		TracingSampleRatio: parseRatio(k.String("TRACING_SAMPLE_RATIO"), 1),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.CurrencyPlaces < 0 {
		return nil, errors.New("CURRENCY_PLACES must not be negative")
	}

	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseRatio(value string, fallback float64) float64 {
	var ratio float64
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%g", &ratio); err != nil {
		return fallback
	}
	if ratio < 0 || ratio > 1 {
		return fallback
	}
	return ratio
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
