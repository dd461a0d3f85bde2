package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/currency"
	"github.com/ndewijer/portfolio-engine/internal/logging"
	"github.com/ndewijer/portfolio-engine/internal/validation"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Engine   EngineConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience

	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig holds the accounting policy of the statistics engine.
type EngineConfig struct {
	ReferenceCurrency string
	FallbackDays      int
	DefaultRates      map[currency.Pair]decimal.Decimal
	UpcomingLimit     int
	Workers           int
	CacheTTL          time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_engine.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Engine: EngineConfig{
			ReferenceCurrency: currency.Code(getEnv("REFERENCE_CURRENCY", "ARS")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", logging.FormatConsole)),
		},
	}

	var err error
	if config.Engine.FallbackDays, err = getEnvInt("RATE_FALLBACK_DAYS", currency.DefaultFallbackDays, 0); err != nil {
		return nil, err
	}
	if config.Engine.UpcomingLimit, err = getEnvInt("UPCOMING_LIMIT", 200, 1); err != nil {
		return nil, err
	}
	if config.Engine.Workers, err = getEnvInt("ENGINE_WORKERS", 4, 1); err != nil {
		return nil, err
	}
	if config.Engine.CacheTTL, err = getEnvDuration("STATS_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if config.Server.RateLimit, err = getEnvFloat("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if config.Server.RateBurst, err = getEnvInt("RATE_LIMIT_BURST", 40, 1); err != nil {
		return nil, err
	}
	if config.Engine.DefaultRates, err = ParseDefaultRates(os.Getenv("DEFAULT_RATES")); err != nil {
		return nil, err
	}

	if err := validation.ValidateCurrency(config.Engine.ReferenceCurrency); err != nil {
		return nil, fmt.Errorf("REFERENCE_CURRENCY: %w", err)
	}
	if !logging.ValidLevel(config.Logging.Level) {
		return nil, fmt.Errorf("LOG_LEVEL: unknown level %q", config.Logging.Level)
	}
	if config.Logging.Format != logging.FormatConsole && config.Logging.Format != logging.FormatJSON {
		return nil, fmt.Errorf("LOG_FORMAT: expected %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, config.Logging.Format)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// ParseDefaultRates parses a comma separated list of "QUOTE/BASE=value" entries,
// e.g. "USD/ARS=1000,EUR/ARS=1100". Values must be positive.
func ParseDefaultRates(s string) (map[currency.Pair]decimal.Decimal, error) {
	rates := make(map[currency.Pair]decimal.Decimal)
	for _, entry := range splitList(s) {
		pairStr, valueStr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("DEFAULT_RATES: entry %q: expected QUOTE/BASE=value", entry)
		}
		pair, err := currency.ParsePair(pairStr)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_RATES: %w", err)
		}
		for _, code := range []string{pair.Base, pair.Quote} {
			if err := validation.ValidateCurrency(code); err != nil {
				return nil, fmt.Errorf("DEFAULT_RATES: entry %q: %w", entry, err)
			}
		}
		value, err := decimal.NewFromString(strings.TrimSpace(valueStr))
		if err != nil || !value.IsPositive() {
			return nil, fmt.Errorf("DEFAULT_RATES: entry %q: rate must be a positive number", entry)
		}
		rates[pair] = value
	}
	return rates, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt reads an integer variable no smaller than minValue.
func getEnvInt(key string, defaultValue, minValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	if v < minValue {
		return 0, fmt.Errorf("%s: must be at least %d, got %d", key, minValue, v)
	}
	return v, nil
}

// getEnvDuration reads a non-negative duration such as "30s" or "5m".
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

// getEnvFloat reads a non-negative number.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
