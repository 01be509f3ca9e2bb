package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	RatesBaseURL       string
	RatesTTL           time.Duration
	RatesCacheCapacity int
	RatesMaxAttempts   int
	RatesRetryBase     time.Duration
	RatesTimeout       time.Duration

	SupportedCurrencies []string
	RoundPrecision      int64
	ExchangePrecision   int64

	RateLimitMax    int
	RateLimitWindow time.Duration

	WarmPairs    []string
	WarmInterval time.Duration
}

// Load reads configuration from environment variables and optional .env files.
// Redis is optional: without REDIS_URL the engine runs with in-process caching
// only and the worker refuses to start.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RatesBaseURL:       valueOrDefault(k.String("RATES_BASE_URL"), "https://rates.example.com"),
		RatesTTL:           parseDuration(k.String("RATES_TTL"), "10m"),
		RatesCacheCapacity: parseInt(k.String("RATES_CACHE_CAPACITY"), 500),
		RatesMaxAttempts:   parseInt(k.String("RATES_MAX_ATTEMPTS"), 3),
		RatesRetryBase:     parseDuration(k.String("RATES_RETRY_BASE"), "200ms"),
		RatesTimeout:       parseDuration(k.String("RATES_TIMEOUT"), "5s"),

		SupportedCurrencies: splitAndTrim(valueOrDefault(k.String("SUPPORTED_CURRENCIES"), "CHF,EUR,USD")),
		RoundPrecision:      int64(parseInt(k.String("ROUND_PRECISION"), 5)),
		ExchangePrecision:   int64(parseInt(k.String("EXCHANGE_PRECISION"), 50)),

		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 60),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),

		WarmPairs:    splitAndTrim(k.String("RATES_WARM_PAIRS")),
		WarmInterval: parseDuration(k.String("RATES_WARM_INTERVAL"), "5m"),
	}

	if cfg.RatesTTL <= 0 {
		return nil, fmt.Errorf("RATES_TTL must be positive")
	}
	if cfg.RoundPrecision <= 0 {
		return nil, fmt.Errorf("ROUND_PRECISION must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
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

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
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
func LoadForTests(envVars map[string]string) (*Config, error) {
	original := make(map[string]string, len(envVars))
	for key := range envVars {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, envVars[key]); err != nil {
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
