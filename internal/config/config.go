package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	Provider string // "live" or "mock"

	DB          DatabaseConfig
	Redis       RedisConfig
	SearchIndex SearchIndexConfig
	Cache       CacheConfig
	SmartDeal   SmartDealConfig
	Estimator   EstimatorConfig
	RateLimit   RateLimitConfig
	Worker      WorkerConfig

	// ExchangeRates is the closed USD-relative rate table. Overrides may
	// adjust individual rates but cannot introduce new currencies.
	ExchangeRates map[string]float64
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SearchIndexConfig contains connection parameters for the external
// search-index service.
type SearchIndexConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CacheConfig contains TTLs for the result, detail, and stats caches.
type CacheConfig struct {
	SearchTTL time.Duration
	DetailTTL time.Duration
	StatsTTL  time.Duration
}

// SmartDealConfig contains the two savings thresholds: the direct-comparison
// threshold used inline in search responses, and the stricter one used by
// the background notify scan.
type SmartDealConfig struct {
	MinSavingsPercent    float64
	NotifySavingsPercent float64
}

// EstimatorConfig contains the flat-rate landed-cost estimator parameters.
type EstimatorConfig struct {
	ShippingRate float64
	FeePoolRate  float64
	DutyShare    float64
	VATShare     float64
}

// RateLimitConfig contains per-IP request rate limiting parameters.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// WorkerConfig contains configuration for background workers. DealScanCountry
// is the destination the deal scan evaluates landed costs against.
type WorkerConfig struct {
	HealthCheckInterval time.Duration
	DealScanInterval    time.Duration
	DealScanCountry     string
}

// defaultRates is the built-in USD-relative exchange rate table. The
// supported currency set is closed: overrides may change values, not codes.
var defaultRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"ILS": 3.65,
	"JPY": 149.50,
	"INR": 83.20,
	"CNY": 7.24,
	"CAD": 1.36,
	"AUD": 1.52,
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that
	// production environments relying solely on real environment variables
	// keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.Provider = getEnv("SEARCH_PROVIDER", "live")

	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.SearchIndex = SearchIndexConfig{
		BaseURL: getEnv("SEARCH_INDEX_URL", ""),
		APIKey:  getEnv("SEARCH_INDEX_API_KEY", ""),
	}

	var err error
	if cfg.SearchIndex.Timeout, err = parseDurationEnv("PROVIDER_TIMEOUT", "5s"); err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}
	if cfg.Cache.SearchTTL, err = parseDurationEnv("CACHE_TTL_SEARCH", "10m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SEARCH: %w", err)
	}
	if cfg.Cache.DetailTTL, err = parseDurationEnv("CACHE_TTL_DETAIL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_DETAIL: %w", err)
	}
	if cfg.Cache.StatsTTL, err = parseDurationEnv("CACHE_TTL_STATS", "1m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_STATS: %w", err)
	}
	if cfg.Worker.HealthCheckInterval, err = parseDurationEnv("HEALTH_CHECK_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid HEALTH_CHECK_INTERVAL: %w", err)
	}
	if cfg.Worker.DealScanInterval, err = parseDurationEnv("DEAL_SCAN_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid DEAL_SCAN_INTERVAL: %w", err)
	}
	cfg.Worker.DealScanCountry = strings.ToUpper(getEnv("DEAL_SCAN_COUNTRY", "IL"))

	cfg.SmartDeal = SmartDealConfig{
		MinSavingsPercent:    getEnvFloat("SMART_DEAL_MIN_SAVINGS_PCT", 10),
		NotifySavingsPercent: getEnvFloat("SMART_DEAL_NOTIFY_SAVINGS_PCT", 15),
	}
	if cfg.SmartDeal.MinSavingsPercent <= 0 || cfg.SmartDeal.NotifySavingsPercent <= 0 {
		return nil, errors.New("smart deal savings thresholds must be positive")
	}

	cfg.Estimator = EstimatorConfig{
		ShippingRate: getEnvFloat("ESTIMATE_SHIPPING_RATE", 0.10),
		FeePoolRate:  getEnvFloat("ESTIMATE_FEE_POOL_RATE", 0.17),
		DutyShare:    getEnvFloat("ESTIMATE_DUTY_SHARE", 0.30),
		VATShare:     getEnvFloat("ESTIMATE_VAT_SHARE", 0.70),
	}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 10),
		Burst:             getEnvInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.ExchangeRates, err = loadExchangeRates(); err != nil {
		return nil, fmt.Errorf("invalid EXCHANGE_RATES: %w", err)
	}

	// The live provider needs both the database (fallback store) and the
	// search index. The mock provider needs neither.
	switch cfg.Provider {
	case "live":
		if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
			return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
		if cfg.SearchIndex.BaseURL == "" {
			return nil, errors.New("SEARCH_INDEX_URL must be set when SEARCH_PROVIDER=live")
		}
	case "mock":
		// no external dependencies
	default:
		return nil, fmt.Errorf("unknown SEARCH_PROVIDER %q (want live or mock)", cfg.Provider)
	}

	return cfg, nil
}

// loadExchangeRates merges EXCHANGE_RATES overrides ("EUR=0.93,ILS=3.70")
// into the default table. Unknown currency codes are a configuration error:
// the supported set is fixed and closed.
func loadExchangeRates() (map[string]float64, error) {
	rates := make(map[string]float64, len(defaultRates))
	for code, rate := range defaultRates {
		rates[code] = rate
	}

	raw := strings.TrimSpace(os.Getenv("EXCHANGE_RATES"))
	if raw == "" {
		return rates, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("malformed rate entry %q", pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if _, known := rates[code]; !known {
			return nil, fmt.Errorf("unsupported currency %q", code)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate for %s: %q", code, value)
		}
		rates[code] = rate
	}
	return rates, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a
// default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvFloat returns the value of an environment variable as a float or a
// default if empty/invalid.
func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// parseDurationEnv reads an environment variable and parses it as
// time.Duration. If the variable is empty, it falls back to the provided
// default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
